package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateViewer()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		return errors.New("paths.upload_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
}

func (c *Config) validateViewer() error {
	switch c.Viewer.HeightPolicy {
	case HeightPolicyShared, HeightPolicyPerAttribute:
	default:
		return fmt.Errorf("viewer.height_policy must be %q or %q, got %q",
			HeightPolicyShared, HeightPolicyPerAttribute, c.Viewer.HeightPolicy)
	}
	if c.Viewer.PanelSpacing < 0 {
		return errors.New("viewer.panel_spacing must not be negative")
	}
	return nil
}
