package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkStatus(t *testing.T) {
	l := &Link{IsActive: true}
	assert.Equal(t, StatusActive, l.Status())
	assert.Equal(t, "active", l.Status().String())

	l.IsActive = false
	assert.Equal(t, StatusInactive, l.Status())
	assert.Equal(t, "inactive", l.Status().String())
}

func TestEventSubject(t *testing.T) {
	assert.Equal(t, "links.created", EventLinkCreated.Subject())
	assert.Equal(t, "links.deactivated", EventLinkDeactivated.Subject())
}
