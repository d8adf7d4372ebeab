// Package intake pulls submitted booking forms and turns them into Pending
// bookings.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"property-ops-backend/config"
	"property-ops-backend/internal/availability"
	"property-ops-backend/internal/booking"
	"property-ops-backend/internal/errs"
	"property-ops-backend/internal/model"
	"property-ops-backend/internal/parse"
)

// Importer creates a booking for a form response unless it already exists.
type Importer interface {
	ImportBooking(ctx context.Context, externalID string, form booking.Form) (model.Booking, bool, error)
}

// question aliases, compared after normalize.
var fields = map[string][]string{
	"name":     {"name", "guestname", "fullname", "yourname"},
	"email":    {"email", "emailaddress", "guestemail"},
	"phone":    {"phone", "phonenumber", "mobile"},
	"guests":   {"guests", "numberofguests", "guestcount"},
	"room":     {"room", "roomid", "preferredroom"},
	"checkin":  {"checkin", "checkindate", "arrival", "arrivaldate"},
	"checkout": {"checkout", "checkoutdate", "departure", "departuredate"},
	"notes":    {"notes", "comments", "specialrequests"},
}

func normalize(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "", ":", "", "?", "").Replace(strings.TrimSpace(s)))
}

// Poller fetches form responses page by page and imports each one. A
// response that was imported or rejected is remembered and skipped by later
// syncs; one that failed on a store error is tried again.
type Poller struct {
	client   *resty.Client
	cfg      config.IntakeConfig
	loc      *time.Location
	importer Importer
	logger   *zap.Logger

	mu      sync.Mutex
	settled map[string]struct{}
}

// NewPoller creates a poller for cfg.URL. Dates without a zone are read in loc.
func NewPoller(cfg config.IntakeConfig, loc *time.Location, importer Importer, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	client := resty.New().
		SetTimeout(30*time.Second).
		SetHeaders(cfg.Headers).
		SetHeader("Accept", "application/json").
		SetLogger(logger.Sugar())
	return &Poller{
		client:   client,
		cfg:      cfg,
		loc:      loc,
		importer: importer,
		logger:   logger.With(zap.String("component", "intake")),
		settled:  make(map[string]struct{}),
	}
}

// Sync imports every response the endpoint returns and reports how many new
// bookings were created. Responses that fail validation or ask for an
// unavailable room are logged and skipped; store errors are returned after
// the remaining responses have been tried.
func (p *Poller) Sync(ctx context.Context) (int, error) {
	responses, fetchErr := p.fetchAll(ctx)
	if fetchErr != nil && len(responses) == 0 {
		return 0, fetchErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	created := 0
	var failures []error
	for _, r := range responses {
		if _, ok := p.settled[r.ID]; ok {
			continue
		}
		form, err := p.toForm(r)
		if err != nil {
			p.settled[r.ID] = struct{}{}
			p.logger.Warn("Skipping unreadable form response", zap.String("response_id", r.ID), zap.Error(err))
			continue
		}
		b, isNew, err := p.importer.ImportBooking(ctx, r.ID, form)
		switch {
		case err == nil:
			p.settled[r.ID] = struct{}{}
			if isNew {
				created++
				p.logger.Info("Imported booking from form", zap.String("response_id", r.ID), zap.String("booking_id", b.ID))
			}
		case errors.Is(err, booking.ErrInvalidForm),
			errors.Is(err, availability.ErrRoomUnavailable),
			errors.Is(err, errs.ErrInvalidRange),
			errors.Is(err, errs.ErrNotFound):
			p.settled[r.ID] = struct{}{}
			p.logger.Warn("Form response rejected", zap.String("response_id", r.ID), zap.Error(err))
		default:
			failures = append(failures, fmt.Errorf("response %s: %w", r.ID, err))
		}
	}
	return created, errors.Join(append(failures, fetchErr)...)
}

func (p *Poller) fetchAll(ctx context.Context) ([]FormResponse, error) {
	var all []FormResponse
	total := 1
	for page := 1; (page-1)*p.cfg.PageSize < total; page++ {
		resp, err := p.fetchPage(ctx, page)
		if err != nil {
			return all, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		if resp.Data.Total == 0 || len(resp.Data.Items) == 0 {
			break
		}
		total = resp.Data.Total
		all = append(all, resp.Data.Items...)
		p.logger.Debug("Fetched form responses", zap.Int("page", page), zap.Int("so_far", len(all)), zap.Int("total", total))
	}
	return all, nil
}

func (p *Poller) fetchPage(ctx context.Context, page int) (*FormResponsePage, error) {
	var out FormResponsePage
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":     fmt.Sprint(page),
			"pageSize": fmt.Sprint(p.cfg.PageSize),
		}).
		SetResult(&out).
		Get(p.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("received status code %d", resp.StatusCode())
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("form endpoint returned application code %d", out.Code)
	}
	return &out, nil
}

func (p *Poller) toForm(r FormResponse) (booking.Form, error) {
	answers := make(map[string]string, len(r.Answers))
	for q, a := range r.Answers {
		answers[normalize(q)] = strings.TrimSpace(a)
	}
	get := func(field string) string {
		for _, alias := range fields[field] {
			if v, ok := answers[alias]; ok {
				return v
			}
		}
		return ""
	}

	checkIn, err := parse.Date(get("checkin"), p.loc)
	if err != nil {
		return booking.Form{}, fmt.Errorf("check-in: %w", err)
	}
	checkOut, err := parse.Date(get("checkout"), p.loc)
	if err != nil {
		return booking.Form{}, fmt.Errorf("check-out: %w", err)
	}
	guests, err := parse.Int(get("guests"))
	if err != nil {
		return booking.Form{}, fmt.Errorf("guests: %w", err)
	}
	if guests == 0 {
		guests = 1
	}
	room := get("room")
	if room == "" {
		room = p.cfg.RoomID
	}

	return booking.Form{
		GuestName:  get("name"),
		GuestEmail: get("email"),
		GuestPhone: get("phone"),
		Guests:     guests,
		RoomID:     room,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Source:     "intake",
		Notes:      get("notes"),
	}, nil
}
