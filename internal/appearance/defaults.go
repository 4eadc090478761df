package appearance

// Default returns a fresh copy of the built-in appearance document.
// Callers may mutate the result freely.
func Default() Config {
	return Config{
		Colors: Colors{
			Primary:      "#2563eb",
			PrimaryLight: "#60a5fa",
			PrimaryDark:  "#1e40af",
			Secondary:    "#64748b",
			Success:      "#16a34a",
			Warning:      "#f59e0b",
			Destructive:  "#dc2626",
		},
		Branding: Branding{
			CompanyName:  "My Company",
			HeroTitle:    "Welcome",
			HeroSubtitle: "Build something your customers love",
		},
		Layout: Layout{
			HeaderStyle:     "default",
			FooterStyle:     "default",
			SidebarPosition: "left",
			BorderRadius:    "md",
			Theme:           "light",
		},
		Hero: HeroConfig{
			ShowHero:        true,
			BackgroundType:  BackgroundColor,
			BackgroundColor: "#2563eb",
			Alignment:       "center",
		},
		Carousel: CarouselConfig{
			Autoplay:   true,
			Interval:   5000,
			ShowArrows: true,
			ShowDots:   true,
			Height:     "md",
			Images:     []CarouselImage{},
		},
		Features: FeaturesConfig{
			ShowFeatures: true,
			Title:        "Features",
			Subtitle:     "Everything you need to get started",
			Features: map[string]Feature{
				"analytics": {
					Title:       "Analytics",
					Description: "Track how visitors use your site",
					Icon:        "bar-chart",
					Enabled:     true,
				},
				"security": {
					Title:       "Security",
					Description: "Enterprise grade protection for your data",
					Icon:        "shield",
					Enabled:     true,
				},
				"support": {
					Title:       "Support",
					Description: "Talk to a real person when you need help",
					Icon:        "life-buoy",
					Enabled:     true,
				},
			},
		},
		Pricing: PricingConfig{
			ShowPricing:  true,
			ShowFAQ:      true,
			ShowFinalCTA: true,
			Title:        "Pricing",
			Subtitle:     "Simple plans for teams of every size",
			Plans: []PricingPlan{
				{
					ID:       "basic",
					Name:     "Basic",
					Price:    0,
					Currency: "USD",
					Period:   "month",
					Features: []PlanFeature{
						{Text: "1 site", Included: true},
						{Text: "Community support", Included: true},
						{Text: "Custom domain", Included: false},
					},
					CTAText: "Get started",
					CTALink: "/signup",
				},
				{
					ID:       "pro",
					Name:     "Pro",
					Price:    29,
					Currency: "USD",
					Period:   "month",
					Features: []PlanFeature{
						{Text: "10 sites", Included: true},
						{Text: "Priority support", Included: true},
						{Text: "Custom domain", Included: true},
					},
					CTAText:     "Start trial",
					CTALink:     "/signup?plan=pro",
					Highlighted: true,
					Popular:     true,
				},
			},
			FAQs: []FAQ{
				{
					ID:       "cancel",
					Question: "Can I cancel at any time?",
					Answer:   "Yes. Plans are billed monthly and can be cancelled from the billing page.",
				},
			},
			FinalCTA: FinalCTA{
				Title:      "Ready to get started?",
				Subtitle:   "Create your site in minutes",
				ButtonText: "Sign up",
				ButtonLink: "/signup",
			},
		},
		HomepageCTA: HomepageCTA{
			Show:          true,
			Title:         "Get started today",
			Subtitle:      "No credit card required",
			PrimaryText:   "Sign up",
			PrimaryLink:   "/signup",
			SecondaryText: "Learn more",
			SecondaryLink: "/about",
		},
		MediaLibraryVisible: true,
		ShowMediaSections:   true,
	}
}
