// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package config

import (
	"fmt"

	"github.com/tomtom215/shortlist/internal/validation"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	return c.validateCategories()
}

// validateSchedule requires a positive interval when scheduling is on.
func (c *Config) validateSchedule() error {
	if c.Schedule.Enabled && c.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive when scheduling is enabled")
	}
	if c.Schedule.Enabled && len(c.Categories) == 0 {
		return fmt.Errorf("schedule is enabled but no categories are configured")
	}
	return nil
}

// validateCategories validates each policy and rejects duplicate keys.
func (c *Config) validateCategories() error {
	seen := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		if err := cat.Policy.Validate(); err != nil {
			return fmt.Errorf("categories[%d]: %w", i, err)
		}
		if seen[cat.Policy.Category] {
			return fmt.Errorf("categories[%d]: duplicate category %q", i, cat.Policy.Category)
		}
		seen[cat.Policy.Category] = true
	}
	return nil
}
