package model

import "fmt"

// Receiver is an organization collecting donations.
type Receiver struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Capacity int      `json:"capacity" yaml:"capacity"`
	Location Location `json:"location" yaml:"location"`
}

// Validate checks that the capacity is positive.
func (r Receiver) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("receiver id is required")
	}
	if r.Capacity <= 0 {
		return fmt.Errorf("receiver %s: capacity must be positive", r.ID)
	}
	return nil
}
