package mass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/backend"
)

const availabilityPath = "/mass-schedule/availability"

var ErrInvalidMonth = errors.New("invalid month")

// DayAvailability lists the free slots of one calendar day.
type DayAvailability struct {
	Date  string `json:"fecha"`
	Slots []Slot `json:"horarios"`
}

// dayResponse accepts both `{disponible, horarios}` objects and bare slot lists.
type dayResponse struct {
	Available *bool  `json:"disponible"`
	Slots     []Slot `json:"horarios"`
}

func (d *dayResponse) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &d.Slots)
	}
	type alias dayResponse
	return json.Unmarshal(data, (*alias)(d))
}

// freeSlots keeps available slots; a day flagged unavailable has none.
func (d dayResponse) freeSlots() []Slot {
	if d.Available != nil && !*d.Available {
		return nil
	}
	free := make([]Slot, 0, len(d.Slots))
	for _, s := range d.Slots {
		if s.Available {
			free = append(free, s)
		}
	}
	return free
}

type AvailabilityService struct {
	api         *backend.Client
	logger      core.Logger
	concurrency int
}

func NewAvailabilityService(api *backend.Client, logger core.Logger, concurrency int) *AvailabilityService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &AvailabilityService{api: api, logger: logger, concurrency: concurrency}
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", core.CleanString(s))
	if err != nil {
		return 0, 0, errors.Wrap(ErrInvalidMonth, s)
	}
	return t.Year(), t.Month(), nil
}

// Day fetches the free slots of a single date.
func (svc *AvailabilityService) Day(ctx context.Context, auth backend.Auth, date time.Time) ([]Slot, error) {
	var res dayResponse
	path := backend.Query(availabilityPath, url.Values{"date": {date.Format(core.DateLayout)}})
	if err := svc.api.JSON(ctx, http.MethodGet, path, auth, nil, &res); err != nil {
		return nil, err
	}
	return res.freeSlots(), nil
}

// Month asks the API for every remaining day of the month, one request per day, and keeps
// the days with at least one free slot, sorted by date. Days before `now` are skipped;
// a failing day is logged and left out. A 401 aborts the whole month.
func (svc *AvailabilityService) Month(ctx context.Context, auth backend.Auth, year int, month time.Month, now time.Time) ([]DayAvailability, error) {
	if month < time.January || month > time.December {
		return nil, ErrInvalidMonth
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	var (
		mu   sync.Mutex
		days = make([]DayAvailability, 0, 31)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(svc.concurrency)

	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		if d.Before(today) {
			continue
		}
		date := d
		g.Go(func() error {
			slots, err := svc.Day(gctx, auth, date)
			if err != nil {
				if core.IsUnauthorized(err) {
					return err
				}
				if gctx.Err() == nil {
					svc.logger.Warn(fmt.Sprintf("availability of %s", date.Format(core.DateLayout)), err)
				}
				return nil
			}
			if len(slots) == 0 {
				return nil
			}
			mu.Lock()
			days = append(days, DayAvailability{Date: date.Format(core.DateLayout), Slots: slots})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "checking month availability")
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}
