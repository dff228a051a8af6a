package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetModelView(t *testing.T) {
	m := NewTargetModel("http://localhost:8080")
	view := m.View()

	assert.Contains(t, view, "zapx")
	assert.Contains(t, view, "ZAP: http://localhost:8080")
	assert.Contains(t, view, "Enter the target URL")
}

func TestTargetModelValidatedTargetEmpty(t *testing.T) {
	m := NewTargetModel("")
	_, err := m.ValidatedTarget()
	assert.EqualError(t, err, "target is required")
}

func TestTargetModelValidatedTarget(t *testing.T) {
	m := NewTargetModel("")
	m.SetValue("  http://juice-shop:3000/  ")

	target, err := m.ValidatedTarget()
	require.NoError(t, err)
	assert.Equal(t, "http://juice-shop:3000/", target.ResolveURL())
}

func TestTargetModelEnterShowsError(t *testing.T) {
	m := NewTargetModel("")
	updated, _ := m.Update(key("enter"))
	m = updated.(TargetModel)
	assert.Contains(t, m.View(), "target is required")

	updated, _ = m.Update(key("h"))
	m = updated.(TargetModel)
	assert.NotContains(t, m.View(), "target is required")
}

func TestTargetModelInit(t *testing.T) {
	m := NewTargetModel("")
	assert.NotNil(t, m.Init())
}
