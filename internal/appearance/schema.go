// Package appearance defines the site appearance document edited by operators
// and rendered for visitors, together with its defaults, merge rules and the
// sanitizer applied before a document is trusted.
package appearance

// Section names a top-level key of the appearance document.
type Section string

const (
	SectionColors              Section = "colors"
	SectionBranding            Section = "branding"
	SectionLayout              Section = "layout"
	SectionHero                Section = "heroConfig"
	SectionCarousel            Section = "carouselConfig"
	SectionFeatures            Section = "featuresConfig"
	SectionPricing             Section = "pricingConfig"
	SectionHomepageCTA         Section = "homepageCTA"
	SectionMediaLibraryVisible Section = "mediaLibraryVisible"
	SectionShowMediaSections   Section = "showMediaSections"
)

// Sections lists every top-level key in document order.
var Sections = []Section{
	SectionColors,
	SectionBranding,
	SectionLayout,
	SectionHero,
	SectionCarousel,
	SectionFeatures,
	SectionPricing,
	SectionHomepageCTA,
	SectionMediaLibraryVisible,
	SectionShowMediaSections,
}

// Config is the appearance document of one tenant (or the global document).
type Config struct {
	Colors              Colors         `json:"colors" yaml:"colors"`
	Branding            Branding       `json:"branding" yaml:"branding"`
	Layout              Layout         `json:"layout" yaml:"layout"`
	Hero                HeroConfig     `json:"heroConfig" yaml:"heroConfig"`
	Carousel            CarouselConfig `json:"carouselConfig" yaml:"carouselConfig"`
	Features            FeaturesConfig `json:"featuresConfig" yaml:"featuresConfig"`
	Pricing             PricingConfig  `json:"pricingConfig" yaml:"pricingConfig"`
	HomepageCTA         HomepageCTA    `json:"homepageCTA" yaml:"homepageCTA"`
	MediaLibraryVisible bool           `json:"mediaLibraryVisible" yaml:"mediaLibraryVisible"`
	ShowMediaSections   bool           `json:"showMediaSections" yaml:"showMediaSections"`
}

type Colors struct {
	Primary      string `json:"primary" yaml:"primary"`
	PrimaryLight string `json:"primaryLight" yaml:"primaryLight"`
	PrimaryDark  string `json:"primaryDark" yaml:"primaryDark"`
	Secondary    string `json:"secondary" yaml:"secondary"`
	Success      string `json:"success" yaml:"success"`
	Warning      string `json:"warning" yaml:"warning"`
	Destructive  string `json:"destructive" yaml:"destructive"`
}

// Branding holds company identity. LogoURL/LogoID and FaviconURL/FaviconID
// are image reference pairs: both empty or both set.
type Branding struct {
	CompanyName  string `json:"companyName" yaml:"companyName"`
	LogoURL      string `json:"logoUrl" yaml:"logoUrl"`
	LogoID       *int64 `json:"logoId,omitempty" yaml:"logoId,omitempty"`
	FaviconURL   string `json:"faviconUrl" yaml:"faviconUrl"`
	FaviconID    *int64 `json:"faviconId,omitempty" yaml:"faviconId,omitempty"`
	HeroTitle    string `json:"heroTitle" yaml:"heroTitle"`
	HeroSubtitle string `json:"heroSubtitle" yaml:"heroSubtitle"`
}

type Layout struct {
	HeaderStyle     string `json:"headerStyle" yaml:"headerStyle"`
	FooterStyle     string `json:"footerStyle" yaml:"footerStyle"`
	SidebarPosition string `json:"sidebarPosition" yaml:"sidebarPosition"`
	BorderRadius    string `json:"borderRadius" yaml:"borderRadius"`
	Theme           string `json:"theme" yaml:"theme"`
}

// Hero background modes.
const (
	BackgroundColor = "color"
	BackgroundImage = "image"
)

type HeroConfig struct {
	ShowHero          bool   `json:"showHero" yaml:"showHero"`
	BackgroundType    string `json:"backgroundType" yaml:"backgroundType"`
	BackgroundColor   string `json:"backgroundColor" yaml:"backgroundColor"`
	BackgroundImage   string `json:"backgroundImage" yaml:"backgroundImage"`
	BackgroundImageID *int64 `json:"backgroundImageId,omitempty" yaml:"backgroundImageId,omitempty"`
	Alignment         string `json:"alignment" yaml:"alignment"`
}

type CarouselImage struct {
	ID  string `json:"id" yaml:"id"`
	URL string `json:"url" yaml:"url"`
	Alt string `json:"alt" yaml:"alt"`
}

type CarouselConfig struct {
	Autoplay   bool            `json:"autoplay" yaml:"autoplay"`
	Interval   int             `json:"interval" yaml:"interval"`
	ShowArrows bool            `json:"showArrows" yaml:"showArrows"`
	ShowDots   bool            `json:"showDots" yaml:"showDots"`
	Height     string          `json:"height" yaml:"height"`
	Images     []CarouselImage `json:"images" yaml:"images"`
}

type Feature struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
}

type FeaturesConfig struct {
	ShowFeatures bool               `json:"showFeatures" yaml:"showFeatures"`
	Title        string             `json:"title" yaml:"title"`
	Subtitle     string             `json:"subtitle" yaml:"subtitle"`
	Features     map[string]Feature `json:"features" yaml:"features"`
}

type PlanFeature struct {
	Text     string `json:"text" yaml:"text"`
	Included bool   `json:"included" yaml:"included"`
}

type PricingPlan struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Price       float64       `json:"price" yaml:"price"`
	Currency    string        `json:"currency" yaml:"currency"`
	Period      string        `json:"period" yaml:"period"`
	Description string        `json:"description" yaml:"description"`
	Features    []PlanFeature `json:"features" yaml:"features"`
	CTAText     string        `json:"ctaText" yaml:"ctaText"`
	CTALink     string        `json:"ctaLink" yaml:"ctaLink"`
	Highlighted bool          `json:"highlighted" yaml:"highlighted"`
	Popular     bool          `json:"popular" yaml:"popular"`
}

type FAQ struct {
	ID       string `json:"id" yaml:"id"`
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

type FinalCTA struct {
	Title      string `json:"title" yaml:"title"`
	Subtitle   string `json:"subtitle" yaml:"subtitle"`
	ButtonText string `json:"buttonText" yaml:"buttonText"`
	ButtonLink string `json:"buttonLink" yaml:"buttonLink"`
}

type PricingConfig struct {
	ShowPricing  bool          `json:"showPricing" yaml:"showPricing"`
	ShowFAQ      bool          `json:"showFaq" yaml:"showFaq"`
	ShowFinalCTA bool          `json:"showFinalCta" yaml:"showFinalCta"`
	Title        string        `json:"title" yaml:"title"`
	Subtitle     string        `json:"subtitle" yaml:"subtitle"`
	Plans        []PricingPlan `json:"plans" yaml:"plans"`
	FAQs         []FAQ         `json:"faqs" yaml:"faqs"`
	FinalCTA     FinalCTA      `json:"finalCta" yaml:"finalCta"`
}

type HomepageCTA struct {
	Show          bool   `json:"show" yaml:"show"`
	Title         string `json:"title" yaml:"title"`
	Subtitle      string `json:"subtitle" yaml:"subtitle"`
	PrimaryText   string `json:"primaryText" yaml:"primaryText"`
	PrimaryLink   string `json:"primaryLink" yaml:"primaryLink"`
	SecondaryText string `json:"secondaryText" yaml:"secondaryText"`
	SecondaryLink string `json:"secondaryLink" yaml:"secondaryLink"`
}
