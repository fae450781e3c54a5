package computer

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeName(s *Session) string {
	return s.pages.current().(*fakePage).name
}

func TestPages_PopupBecomesActive(t *testing.T) {
	s, e := openSession(t)

	e.ctx.popup("popup", "https://popup.example.com")

	// nothing changes until the next action drains the queue
	assert.Equal(t, "main", activeName(s))
	assert.Equal(t, 1, s.pages.pending())

	require.NoError(t, s.Click(3, 4, ButtonLeft))
	assert.Equal(t, []string{
		"popup: viewport 1024x768",
		"popup: click 3,4 left",
	}, e.rec.all())
	assert.Equal(t, "https://popup.example.com", s.CurrentURL())
}

func TestPages_ViewportAppliedOnce(t *testing.T) {
	s, e := openSession(t)

	popup := e.ctx.popup("popup", "https://popup.example.com")
	require.NoError(t, s.Move(1, 1))

	// close popup, main becomes active again without being resized
	popup.close()
	require.NoError(t, s.Move(2, 2))

	assert.Equal(t, []string{
		"popup: viewport 1024x768",
		"popup: move 1,1",
		"main: move 2,2",
	}, e.rec.all())
}

func TestPages_ClosingActiveSelectsMostRecent(t *testing.T) {
	s, e := openSession(t)

	e.ctx.popup("second", "https://second.example.com")
	third := e.ctx.popup("third", "https://third.example.com")
	require.NoError(t, s.Move(0, 0))
	require.Equal(t, "third", activeName(s))

	before := testutil.ToFloat64(pageReassignmentsTotal.WithLabelValues(reasonClosed))
	third.close()
	require.NoError(t, s.Move(0, 0))

	assert.Equal(t, "second", activeName(s))
	assert.Equal(t, before+1, testutil.ToFloat64(pageReassignmentsTotal.WithLabelValues(reasonClosed)))

	urls, err := s.Pages()
	require.NoError(t, err)
	assert.Equal(t, []string{"about:blank", "https://second.example.com"}, urls)
}

func TestPages_ClosingInactiveKeepsActive(t *testing.T) {
	s, e := openSession(t)

	second := e.ctx.popup("second", "https://second.example.com")
	require.NoError(t, s.Move(0, 0))
	require.Equal(t, "second", activeName(s))

	e.page.close()
	require.NoError(t, s.Move(0, 0))
	assert.Equal(t, "second", activeName(s))
	assert.False(t, second.closed)
}

func TestPages_LastPageClosedOpensBlank(t *testing.T) {
	e := newLaunchEnv()
	log, logs := observedLogger()
	opts := e.options()
	opts.Logger = log

	s, err := Open(context.Background(), opts)
	require.NoError(t, err)
	defer s.Close()
	e.rec.reset()

	e.page.close()
	require.NoError(t, s.Click(1, 1, ButtonLeft))

	assert.Equal(t, []string{
		"context: new page new1",
		"new1: viewport 1024x768",
		"new1: click 1,1 left",
	}, e.rec.all())
	assert.Equal(t, "new1", activeName(s))
	assert.Equal(t, blankURL, s.CurrentURL())
	assert.Equal(t, 1, logs.FilterMessage("Last page closed, opening a blank page").Len())
}

func TestPages_BlankPageFailureSurfaces(t *testing.T) {
	s, e := openSession(t)
	e.ctx.newPageErr = errors.New("browser gone")

	e.page.close()
	err := s.Move(1, 1)
	require.Error(t, err)

	// later actions keep failing instead of touching a closed page
	assert.ErrorIs(t, s.Move(1, 1), errNoActivePage)
}

func TestPages_OpenedThenClosedBeforeSync(t *testing.T) {
	s, e := openSession(t)

	flash := e.ctx.popup("flash", "https://flash.example.com")
	flash.close()
	require.NoError(t, s.Move(0, 0))

	assert.Equal(t, "main", activeName(s))
	assert.Equal(t, []string{"main: move 0,0"}, e.rec.all())
}

func TestPages_DuplicateOpenEventsAreIgnored(t *testing.T) {
	s, e := openSession(t)

	popup := e.ctx.popup("popup", "https://popup.example.com")
	e.ctx.emitPage(popup)
	require.NoError(t, s.Move(0, 0))
	require.Equal(t, "popup", activeName(s))

	urls, err := s.Pages()
	require.NoError(t, err)
	assert.Len(t, urls, 2)

	// one close handler per page
	assert.Len(t, popup.onClose, 1)
}

func TestPages_PreexistingPagesAreTracked(t *testing.T) {
	e := newLaunchEnv()
	other := e.ctx.addPage("other", "https://other.example.com")

	s, err := Open(context.Background(), e.options())
	require.NoError(t, err)
	defer s.Close()

	// pages the session did not open still get a close handler
	require.Len(t, other.onClose, 1)

	e.page.close()
	require.NoError(t, s.Move(0, 0))
	assert.Equal(t, "other", activeName(s))
}
