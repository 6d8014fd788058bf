// Package errors provides the typed errors shared by the pipeline packages and
// a collector used to aggregate per-file failures into a single report.
package errors

import (
	"errors"
	"sync"
)

// Collector collects errors from independent operations so that one failure
// does not hide the others.
type Collector struct {
	errors []error
	mutex  sync.RWMutex
}

// NewCollector creates a new error collector
func NewCollector() *Collector {
	return &Collector{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collector. Nil errors are ignored.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errors = append(c.errors, err)
}

// Errors returns a copy of the collected errors
func (c *Collector) Errors() []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]error, len(c.errors))
	copy(result, c.errors)
	return result
}

// Len returns the number of collected errors
func (c *Collector) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.errors)
}

// HasErrors returns true if there are any errors
func (c *Collector) HasErrors() bool {
	return c.Len() > 0
}

// Err joins the collected errors, or returns nil when there are none.
func (c *Collector) Err() error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if len(c.errors) == 0 {
		return nil
	}
	return errors.Join(c.errors...)
}

// FilterByType returns the collected errors of the given type.
func (c *Collector) FilterByType(t ErrorType) []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var filtered []error
	for _, err := range c.errors {
		if isType(err, t) {
			filtered = append(filtered, err)
		}
	}
	return filtered
}
