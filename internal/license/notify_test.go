package license

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifierFansOutInOrder(t *testing.T) {
	n := NewNotifier()

	var got []string
	n.OnStatus(func(msg string) { got = append(got, "a:"+msg) })
	n.OnStatus(func(msg string) { got = append(got, "b:"+msg) })

	n.Status("checking")
	assert.Equal(t, []string{"a:checking", "b:checking"}, got)
}

func TestNotifierLicensedSignal(t *testing.T) {
	n := NewNotifier()

	var got []bool
	n.OnLicensed(func(ok bool) { got = append(got, ok) })

	n.Licensed(true)
	n.Licensed(false)
	assert.Equal(t, []bool{true, false}, got)
}

func TestNotifierNilSafety(t *testing.T) {
	var n *Notifier

	assert.NotPanics(t, func() {
		n.OnStatus(func(string) {})
		n.OnLicensed(func(bool) {})
		n.Status("ignored")
		n.Licensed(true)
	})
}

func TestNotifierIgnoresNilObservers(t *testing.T) {
	n := NewNotifier()
	n.OnStatus(nil)
	n.OnLicensed(nil)

	assert.NotPanics(t, func() {
		n.Status("ok")
		n.Licensed(true)
	})
}
