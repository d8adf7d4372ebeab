package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"property-ops-backend/config"
	"property-ops-backend/internal/api"
	"property-ops-backend/internal/db"
	"property-ops-backend/internal/intake"
	"property-ops-backend/internal/model"
	"property-ops-backend/internal/notification"
	"property-ops-backend/internal/service"
	"property-ops-backend/internal/sheet"
	"property-ops-backend/internal/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// mailServer records the tags of every message posted to it.
type mailServer struct {
	*httptest.Server
	mu          sync.Mutex
	tags        []string
	attachments []string
}

func newMailServer(t *testing.T) *mailServer {
	m := &mailServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			To          []string `json:"to"`
			Tags        []string `json:"tags"`
			Attachments []struct {
				Filename string `json:"filename"`
			} `json:"attachments"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		m.mu.Lock()
		m.tags = append(m.tags, body.Tags...)
		for _, a := range body.Attachments {
			m.attachments = append(m.attachments, a.Filename)
		}
		m.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mailServer) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tags...)
}

// formServer serves a fixed set of form responses on a single page.
func formServer(t *testing.T, items ...intake.FormResponse) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var page intake.FormResponsePage
		page.Data.Page = 1
		page.Data.PageSize = 50
		page.Data.Total = len(items)
		page.Data.Items = items
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sqliteStore(t *testing.T) store.Store {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	require.NoError(t, gdb.Create(&[]model.Room{
		{ID: "101", Kind: model.RoomKindLongTerm, BaseRate: 800, Occupancy: model.OccupancyOccupied},
		{ID: "G1", Kind: model.RoomKindGuest, BaseRate: 100, Occupancy: model.OccupancyVacant},
	}).Error)
	require.NoError(t, gdb.Create(&model.Tenant{
		ID: "t1", RoomID: "101", Name: "Ana", Email: "ana@example.com", MoveIn: day(2024, 1, 1),
	}).Error)
	require.NoError(t, gdb.Create(&model.PricingRule{
		Name: "Weekend", Type: "DayOfWeek", Condition: "Weekend", Adjustment: "+20%", Priority: 1, Active: true,
	}).Error)
	return store.NewGormStore(gdb, zap.NewNop())
}

func workbookStore(t *testing.T) store.Store {
	path := filepath.Join(t.TempDir(), "property.xlsx")
	w, err := sheet.Open(path, time.UTC, zap.NewNop())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	rows := map[string][][]interface{}{
		sheet.SheetRooms: {
			{"101", "Garden", "long_term", 800, "", "Occupied"},
			{"G1", "Annex", "guest", 100, "", "Vacant"},
		},
		sheet.SheetTenants:      {{"t1", "101", "Ana", "ana@example.com", "", "2024-01-01"}},
		sheet.SheetPricingRules: {{"Weekend", "DayOfWeek", "Weekend", "+20%", 1, "TRUE"}},
	}
	for name, rs := range rows {
		for i, row := range rs {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())
	return w
}

func call(t *testing.T, r *gin.Engine, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

// TestBookingLifecycle drives a guest booking from form intake to revenue,
// then bills the long-term tenant, against both storage backends.
func TestBookingLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	backends := []struct {
		name string
		open func(t *testing.T) store.Store
	}{
		{"sqlite", sqliteStore},
		{"workbook", workbookStore},
	}

	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			ctx := context.Background()
			s := backend.open(t)
			mail := newMailServer(t)

			sink := notification.NewMailSink(config.MailConfig{
				Endpoint: mail.URL,
				From:     "office@example.com",
				Timeout:  5 * time.Second,
			}, zap.NewNop())
			svc := service.New(s, notification.NewDispatcher(2, sink, zap.NewNop()), nil, service.Options{
				Property:     "Harbour House",
				Currency:     "USD",
				ManagerEmail: "manager@example.com",
				Now:          func() time.Time { return time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC) },
			}, zap.NewNop())

			// 1. Intake: one good response, one with the dates swapped.
			forms := formServer(t,
				intake.FormResponse{ID: "resp-1", Answers: map[string]string{
					"Full name":        "Dora Guest",
					"Email address":    "dora@example.com",
					"Number of guests": "2",
					"Check-in date":    "2024-06-17",
					"Check-out date":   "2024-06-19",
				}},
				intake.FormResponse{ID: "resp-2", Answers: map[string]string{
					"Name":      "Eli Backwards",
					"Email":     "eli@example.com",
					"Check-in":  "2024-06-19",
					"Check-out": "2024-06-17",
				}},
			)
			poller := intake.NewPoller(config.IntakeConfig{URL: forms.URL, PageSize: 50, RoomID: "G1"}, time.UTC, svc, zap.NewNop())

			created, err := poller.Sync(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, created)

			created, err = poller.Sync(ctx)
			require.NoError(t, err)
			assert.Zero(t, created, "a second sync must not duplicate the booking")

			router := api.NewRouter(config.ServerConfig{
				RateLimitPerSec: 1000,
				RateLimitBurst:  1000,
				CacheTTL:        time.Minute,
				AllowedOrigins:  []string{"*"},
			}, svc, s, nil, zap.NewNop())

			var bookings []model.Booking
			require.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/api/bookings", nil, &bookings))
			require.Len(t, bookings, 1)
			b := bookings[0]
			assert.Equal(t, model.BookingPending, b.Status)
			assert.Equal(t, "G1", b.RoomID)
			assert.Equal(t, "intake", b.Source)
			assert.Equal(t, "200", b.Total.String())

			// A pending booking leaves the room open.
			var free []model.Room
			require.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/api/availability?check_in=2024-06-18&check_out=2024-06-20", nil, &free))
			assert.Len(t, free, 1)

			// 2. Confirm, after which the room is taken.
			require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/bookings/"+b.ID+"/confirm", nil, &b))
			assert.Equal(t, model.BookingConfirmed, b.Status)

			free = nil
			require.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/api/availability?check_in=2024-06-18&check_out=2024-06-20", nil, &free))
			assert.Empty(t, free)

			code := call(t, router, http.MethodPost, "/api/bookings", gin.H{
				"guestName": "Fay Late", "guestEmail": "fay@example.com", "guests": 1,
				"roomId": "G1", "checkIn": "2024-06-18", "checkOut": "2024-06-20",
			}, nil)
			assert.Equal(t, http.StatusConflict, code)

			// 3. Payment, check-in, check-out.
			require.Equal(t, http.StatusCreated, call(t, router, http.MethodPost, "/api/bookings/"+b.ID+"/payments",
				gin.H{"amount": 200, "paidOn": "2024-06-17"}, &b))
			assert.Equal(t, "200", b.Paid.String())

			require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/bookings/"+b.ID+"/check-in", nil, &b))
			assert.Equal(t, model.BookingCheckedIn, b.Status)

			room, err := s.GetRoom(ctx, "G1")
			require.NoError(t, err)
			assert.Equal(t, model.OccupancyOccupied, room.Occupancy)
			require.NotNil(t, room.OccupantID)
			assert.Equal(t, b.ID, *room.OccupantID)

			require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/bookings/"+b.ID+"/check-out", nil, &b))
			assert.Equal(t, model.BookingCheckedOut, b.Status)

			room, err = s.GetRoom(ctx, "G1")
			require.NoError(t, err)
			assert.Equal(t, model.OccupancyVacant, room.Occupancy)
			assert.Nil(t, room.OccupantID)

			assert.Equal(t, http.StatusConflict, call(t, router, http.MethodPost, "/api/bookings/"+b.ID+"/cancel", nil, nil))

			// 4. The guest payment shows up in the month's revenue.
			var report struct {
				Income string `json:"income"`
				Rooms  []struct {
					RoomID string `json:"roomId"`
					Net    string `json:"net"`
				} `json:"rooms"`
			}
			require.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/api/reports/revenue?start=2024-06-01&end=2024-06-30", nil, &report))
			assert.Equal(t, "200", report.Income)
			require.Len(t, report.Rooms, 1)
			assert.Equal(t, "G1", report.Rooms[0].RoomID)
			assert.Equal(t, "200", report.Rooms[0].Net)

			// 5. Monthly invoice for the long-term tenant, with the workbook attached.
			var res notification.BatchResult
			require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/notifications/invoices", nil, &res))
			assert.Equal(t, 1, res.Sent)
			assert.Empty(t, res.Failures)

			assert.Equal(t, []string{
				string(notification.KindBookingReceived),
				string(notification.KindNewBookingAlert),
				string(notification.KindBookingConfirmed),
				string(notification.KindInvoice),
			}, sortedByFlow(mail.sent()))
			mail.mu.Lock()
			assert.Equal(t, []string{"INV-202406-101.xlsx"}, mail.attachments)
			mail.mu.Unlock()
		})
	}
}

// sortedByFlow orders tags by the step that produced them; the dispatcher's
// workers deliver each batch in no fixed order.
func sortedByFlow(tags []string) []string {
	rank := map[string]int{
		string(notification.KindBookingReceived):  0,
		string(notification.KindNewBookingAlert):  1,
		string(notification.KindBookingConfirmed): 2,
		string(notification.KindInvoice):          3,
	}
	out := append([]string(nil), tags...)
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i]] < rank[out[j]] })
	return out
}
