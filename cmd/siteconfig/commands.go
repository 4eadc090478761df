package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"site-config-dashboard/internal/appearance"
	"site-config-dashboard/internal/services"
	"site-config-dashboard/internal/sitecfg"
)

var errLoginRequired = errors.New("SITECONFIG_TOKEN is required")

func newGetCmd() *cobra.Command {
	var (
		format  string
		section string
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the current appearance document",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = s.finish(cmd.Context())
			}()
			return writeDocument(cmd.OutOrStdout(), s.store.GetConfig(), appearance.Section(section), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringVarP(&section, "section", "s", "", "print only one top-level section")
	return cmd
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <section> <json>",
		Short: "Merge a JSON patch into one section",
		Long:  "Merges a JSON object (or a boolean for flag sections) into one top-level section and saves the result.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			section := appearance.Section(args[0])
			if !appearance.ValidSection(section) {
				return fmt.Errorf("%w: %q", appearance.ErrUnknownSection, args[0])
			}
			return edit(cmd, func(s *session) error {
				return s.store.UpdatePartial(section, json.RawMessage(args[1]))
			})
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace the document with the defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return edit(cmd, func(s *session) error {
				return s.store.ReplaceAll(appearance.Default())
			})
		},
	}
}

func newUploadCmd() *cobra.Command {
	var alt string

	cmd := &cobra.Command{
		Use:   "upload <category> <file>",
		Short: "Upload an image and reference it from the document",
		Long:  "Uploads a local image (logo, favicon, hero, carousel or media) and stores the returned url and id in the matching section.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := strings.ToLower(args[0])
			if !services.UploadCategories[category] {
				return fmt.Errorf("%w: %q", services.ErrInvalidCategory, args[0])
			}
			if alt == "" {
				alt = strings.TrimSuffix(filepath.Base(args[1]), filepath.Ext(args[1]))
			}
			return edit(cmd, func(s *session) error {
				if s.cfg.Token == "" {
					return errLoginRequired
				}
				api := newAPIClient(s.cfg.ServerURL, s.cfg.Token, s.cfg.RequestTimeout)
				result, err := api.upload(cmd.Context(), category, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "uploaded #%d %s\n", result.ID, result.URL)

				section, patch, err := imagePatch(category, result, s.store.GetConfig(), alt)
				if err != nil || section == "" {
					return err
				}
				return s.store.UpdatePartial(section, patch)
			})
		},
	}

	cmd.Flags().StringVar(&alt, "alt", "", "alt text for carousel images (default: file name)")
	return cmd
}

func newPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish the tenant document as the global one",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.finish(cmd.Context()); err != nil {
				return err
			}
			if s.cfg.Token == "" {
				return errLoginRequired
			}
			env, err := newAPIClient(s.cfg.ServerURL, s.cfg.Token, s.cfg.RequestTimeout).publish(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", env.ConfigID)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the session took its document from",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			id := s.store.Identity()
			fmt.Fprintf(out, "server:        %s\n", s.cfg.ServerURL)
			fmt.Fprintf(out, "authenticated: %t\n", id.Authenticated)
			fmt.Fprintf(out, "state:         %s\n", s.store.State())
			fmt.Fprintf(out, "source:        %s\n", s.source)
			fmt.Fprintf(out, "local driver:  %s\n", s.cfg.LocalDriver)
			fmt.Fprintf(out, "pending:       %t\n", s.store.Pending())
			fmt.Fprintf(out, "migrating:     %t\n", s.store.MigrationInFlight())
			return s.finish(cmd.Context())
		},
	}
}

// edit opens a session, applies fn and writes the result before returning.
func edit(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		_ = s.finish(cmd.Context())
		return err
	}
	if err := s.finish(cmd.Context()); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}

	target := "local store"
	if s.target() == sitecfg.TargetRemote {
		target = "server"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved to %s\n", target)
	return nil
}

// writeDocument prints cfg, or one section of it, as JSON or YAML.
func writeDocument(out io.Writer, cfg appearance.Config, section appearance.Section, format string) error {
	var value any = cfg
	if section != "" {
		raw, err := json.Marshal(cfg)
		if err != nil {
			return err
		}
		var sections map[string]any
		if err := json.Unmarshal(raw, &sections); err != nil {
			return err
		}
		picked, ok := sections[string(section)]
		if !ok {
			return fmt.Errorf("%w: %q", appearance.ErrUnknownSection, section)
		}
		value = picked
	}

	switch strings.ToLower(format) {
	case "yaml", "yml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return err
		}
		return encoder.Close()
	case "json", "":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
