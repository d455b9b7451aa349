package dashboard

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// View is one screen of the dashboard workflow.
type View int

const (
	ViewMain View = iota
	ViewServices
	ViewDetail
)

func (v View) String() string {
	switch v {
	case ViewMain:
		return "main"
	case ViewServices:
		return "services"
	case ViewDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// DetailFetcher loads the service-scoped detail rows (lab tests, report
// template) shown on the detail screen.
type DetailFetcher func(ctx context.Context, serviceID uuid.UUID) ([]TestRow, error)

// Controller is the per-tab navigation state machine. Both the lab and
// radiology dashboards instantiate one. Every transition cancels the
// previous screen's in-flight fetch, so a stale response can never write
// into a screen the user has left.
type Controller struct {
	detail  DetailFetcher
	refresh func(ctx context.Context)

	mu         sync.Mutex
	view       View
	patient    *Aggregate
	service    *ServiceRow
	detailRows []TestRow
	loading    bool
	err        error
	gen        uint64
	cancel     context.CancelFunc
}

// NewController starts at the main screen. detail may be nil for screen
// families whose rows are fully embedded in the aggregate; refresh, if
// set, runs in the background after a completed detail action.
func NewController(detail DetailFetcher, refresh func(ctx context.Context)) *Controller {
	return &Controller{detail: detail, refresh: refresh, view: ViewMain}
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) SelectedPatient() *Aggregate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.patient
}

func (c *Controller) SelectedService() *ServiceRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.service
}

func (c *Controller) Detail() ([]TestRow, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detailRows, c.loading, c.err
}

// bump invalidates any in-flight fetch. Callers hold the mutex.
func (c *Controller) bump() uint64 {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return c.gen
}

// SelectPatient moves main -> services. The services list is already
// embedded in the aggregate, so no fetch is issued.
func (c *Controller) SelectPatient(agg *Aggregate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != ViewMain {
		return
	}
	c.bump()
	c.patient = agg
	c.view = ViewServices
	c.err = nil
}

// SelectService moves services -> detail. The view flips immediately;
// the detail rows arrive when the fetch lands, unless a later transition
// has already invalidated it. The returned channel closes when the fetch
// settles.
func (c *Controller) SelectService(ctx context.Context, row ServiceRow) <-chan struct{} {
	done := make(chan struct{})

	c.mu.Lock()
	if c.view != ViewServices {
		c.mu.Unlock()
		close(done)
		return done
	}
	gen := c.bump()
	c.service = &row
	c.view = ViewDetail
	c.detailRows = nil
	c.err = nil

	if c.detail == nil {
		c.loading = false
		c.mu.Unlock()
		close(done)
		return done
	}

	c.loading = true
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	fetch := c.detail
	c.mu.Unlock()

	go func() {
		defer close(done)
		rows, err := fetch(fetchCtx, row.ID)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			// The user already left this screen.
			return
		}
		c.loading = false
		if err != nil {
			c.err = err
			return
		}
		c.detailRows = rows
	}()
	return done
}

// Complete moves detail -> services after a saved action and kicks off a
// background list refresh.
func (c *Controller) Complete(ctx context.Context) {
	c.mu.Lock()
	if c.view != ViewDetail {
		c.mu.Unlock()
		return
	}
	c.bump()
	c.service = nil
	c.detailRows = nil
	c.loading = false
	c.view = ViewServices
	refresh := c.refresh
	c.mu.Unlock()

	if refresh != nil {
		go refresh(ctx)
	}
}

// Back pops one screen. Unsaved detail edits are discarded; there is no
// draft persistence.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.view {
	case ViewDetail:
		c.bump()
		c.service = nil
		c.detailRows = nil
		c.loading = false
		c.err = nil
		c.view = ViewServices
	case ViewServices:
		c.toMainLocked()
	}
}

// BackToMain resets the machine from any screen.
func (c *Controller) BackToMain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toMainLocked()
}

// toMainLocked clears both selections. Every path into the main screen
// goes through here; a stale selection leaking across patients is the
// defect this guards against.
func (c *Controller) toMainLocked() {
	c.bump()
	c.patient = nil
	c.service = nil
	c.detailRows = nil
	c.loading = false
	c.err = nil
	c.view = ViewMain
}
