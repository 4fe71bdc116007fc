package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"fixmarket_backend/internal/classifier"
	"fixmarket_backend/internal/events"
	ticketdomain "fixmarket_backend/internal/tickets/domain"
	"fixmarket_backend/platform/apperr"
	"fixmarket_backend/platform/geo"
	"fixmarket_backend/platform/logger"

	"github.com/google/uuid"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeTicketStore struct {
	tickets  map[uuid.UUID]*ticketdomain.Ticket
	failures int
	updates  []string
}

func (f *fakeTicketStore) GetByID(ctx context.Context, id uuid.UUID) (*ticketdomain.Ticket, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("connection reset")
	}
	t, ok := f.tickets[id]
	if !ok {
		return nil, apperr.NotFound("ticket not found")
	}
	return t, nil
}

func (f *fakeTicketStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to ticketdomain.Status) error {
	t, ok := f.tickets[id]
	if !ok {
		return apperr.NotFound("ticket not found")
	}
	if t.Status != from {
		return apperr.Conflict("wrong state").WithCode(apperr.CodeInvalidTicketState)
	}
	t.Status = to
	f.updates = append(f.updates, string(from)+">"+string(to))
	return nil
}

func (f *fakeTicketStore) ReturnToOpen(ctx context.Context, id uuid.UUID) error {
	t, ok := f.tickets[id]
	if !ok {
		return apperr.NotFound("ticket not found")
	}
	if t.Status != ticketdomain.StatusDispatched {
		return apperr.Conflict("wrong state").WithCode(apperr.CodeInvalidTicketState)
	}
	t.Status = ticketdomain.StatusOpen
	t.DispatchedVendorID = nil
	f.updates = append(f.updates, string(ticketdomain.StatusDispatched)+">"+string(ticketdomain.StatusOpen))
	return nil
}

type fakeCandidateSource struct {
	candidates []Candidate
}

func (f *fakeCandidateSource) CandidatesByCategory(ctx context.Context, category string) ([]Candidate, error) {
	var out []Candidate
	for _, c := range f.candidates {
		if c.Category == category {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCandidateSource) CandidateByID(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	for _, c := range f.candidates {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, apperr.NotFound("vendor not found")
}

// fakeAssigner mirrors the repository semantics: selection against the
// candidate set, a high-severity dispatched ticket on success, nothing
// persisted on a no-vendor outcome.
type fakeAssigner struct {
	source  *fakeCandidateSource
	created []*ticketdomain.Ticket
}

func (f *fakeAssigner) AssignUrgent(ctx context.Context, p AssignParams) (*ticketdomain.Ticket, *Candidate, error) {
	candidates, _ := f.source.CandidatesByCategory(ctx, p.Category)
	if p.ExplicitVendorID != nil {
		candidates = nil
		if c, err := f.source.CandidateByID(ctx, *p.ExplicitVendorID); err == nil {
			candidates = []Candidate{*c}
		}
	}

	vendor, err := SelectUrgentVendor(candidates, p.Origin, p.Hold)
	if err != nil {
		return nil, nil, err
	}
	if vendor == nil {
		return nil, nil, apperr.Conflict("no vendor available for urgent dispatch").
			WithCode(apperr.CodeNoEligibleVendor)
	}

	now := time.Now()
	ticket := &ticketdomain.Ticket{
		ID:                 uuid.New(),
		Description:        p.Description,
		Summary:            p.Summary,
		Category:           p.Category,
		Severity:           ticketdomain.SeverityHigh,
		Status:             ticketdomain.StatusDispatched,
		ExpiresAt:          ticketdomain.ExpiryFor(ticketdomain.SeverityHigh, now),
		DispatchedVendorID: &vendor.ID,
		CreatedAt:          now,
	}
	f.created = append(f.created, ticket)
	return ticket, vendor, nil
}

func newTestEngine(store *fakeTicketStore, source *fakeCandidateSource, assigner *fakeAssigner, hold bool) *Engine {
	log := logger.New("test")
	cls := classifier.New(nil, time.Second, log)
	bus := events.NewInMemoryBus(log)
	return New(store, source, assigner, cls, bus, hold, log)
}

func seqID(n byte) uuid.UUID {
	var id uuid.UUID
	id[15] = n
	return id
}

// ── Selection ─────────────────────────────────────────────────────────────────

func TestSelectUrgentVendorPicksLowestID(t *testing.T) {
	candidates := []Candidate{
		{ID: seqID(3), Category: "plumbing", Location: geo.Point{Lat: 40, Lon: -75}, RadiusKm: 50},
		{ID: seqID(1), Category: "plumbing", Location: geo.Point{Lat: 40, Lon: -75}, RadiusKm: 50},
		{ID: seqID(2), Category: "plumbing", Location: geo.Point{Lat: 40, Lon: -75}, RadiusKm: 50},
	}

	pick, err := SelectUrgentVendor(candidates, nil, false)
	if err != nil {
		t.Fatalf("SelectUrgentVendor() error = %v", err)
	}
	if pick == nil || pick.ID != seqID(1) {
		t.Fatalf("expected lowest id to win, got %+v", pick)
	}
}

func TestSelectUrgentVendorAppliesGeoFilter(t *testing.T) {
	near := Candidate{ID: seqID(2), Location: geo.Point{Lat: 40.0, Lon: -75.0}, RadiusKm: 10}
	farAway := Candidate{ID: seqID(1), Location: geo.Point{Lat: 45.0, Lon: -75.0}, RadiusKm: 10}
	origin := &geo.Point{Lat: 40.05, Lon: -75.0}

	pick, err := SelectUrgentVendor([]Candidate{farAway, near}, origin, false)
	if err != nil {
		t.Fatalf("SelectUrgentVendor() error = %v", err)
	}
	if pick == nil || pick.ID != near.ID {
		t.Fatalf("expected the in-range vendor despite its higher id, got %+v", pick)
	}
}

func TestSelectUrgentVendorSkipsOccupiedWhenHoldOn(t *testing.T) {
	busy := Candidate{ID: seqID(1), Location: geo.Point{Lat: 40, Lon: -75}, RadiusKm: 50, Occupied: true}
	free := Candidate{ID: seqID(2), Location: geo.Point{Lat: 40, Lon: -75}, RadiusKm: 50}

	pick, err := SelectUrgentVendor([]Candidate{busy, free}, nil, true)
	if err != nil {
		t.Fatalf("SelectUrgentVendor() error = %v", err)
	}
	if pick == nil || pick.ID != free.ID {
		t.Fatalf("expected the free vendor, got %+v", pick)
	}

	pick, err = SelectUrgentVendor([]Candidate{busy, free}, nil, false)
	if err != nil {
		t.Fatalf("SelectUrgentVendor() error = %v", err)
	}
	if pick == nil || pick.ID != busy.ID {
		t.Fatalf("expected occupancy to be ignored with the hold off, got %+v", pick)
	}
}

func TestSelectUrgentVendorNoneEligible(t *testing.T) {
	pick, err := SelectUrgentVendor(nil, nil, false)
	if err != nil {
		t.Fatalf("SelectUrgentVendor() error = %v", err)
	}
	if pick != nil {
		t.Fatalf("expected nil pick, got %+v", pick)
	}
}

func TestEligibleCandidatesRejectsBadOrigin(t *testing.T) {
	candidates := []Candidate{{Location: geo.Point{Lat: 40, Lon: -75}, RadiusKm: 10}}

	if _, err := EligibleCandidates(candidates, &geo.Point{Lat: 120, Lon: 0}); !apperr.HasCode(err, apperr.CodeInvalidCoordinate) {
		t.Fatalf("expected invalid coordinate error, got %v", err)
	}
}

// ── Urgent dispatch ───────────────────────────────────────────────────────────

func TestDispatchUrgentLeakScenario(t *testing.T) {
	source := &fakeCandidateSource{candidates: []Candidate{
		{ID: seqID(1), Name: "Ace Plumbing", Category: "plumbing", Location: geo.Point{Lat: 40.0, Lon: -75.0}, RadiusKm: 10},
	}}
	assigner := &fakeAssigner{source: source}
	eng := newTestEngine(&fakeTicketStore{}, source, assigner, false)

	lat, lon := 40.05, -75.0
	before := time.Now()
	result, err := eng.DispatchUrgent(context.Background(), UrgentRequest{
		Transcript: "user: there is a water leak under my sink",
		Lat:        &lat,
		Lon:        &lon,
	})
	if err != nil {
		t.Fatalf("DispatchUrgent() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got reason %q", result.Reason)
	}
	if result.VendorRef == nil || *result.VendorRef != seqID(1) {
		t.Fatalf("unexpected vendor ref: %v", result.VendorRef)
	}

	if len(assigner.created) != 1 {
		t.Fatalf("expected one ticket, got %d", len(assigner.created))
	}
	ticket := assigner.created[0]
	if ticket.Severity != ticketdomain.SeverityHigh {
		t.Fatalf("expected high severity, got %s", ticket.Severity)
	}
	if ticket.Status != ticketdomain.StatusDispatched {
		t.Fatalf("expected dispatched status, got %s", ticket.Status)
	}
	if ticket.Category != "plumbing" {
		t.Fatalf("expected transcript to classify as plumbing, got %s", ticket.Category)
	}
	window := ticket.ExpiresAt.Sub(before)
	if window < 19*time.Minute || window > 21*time.Minute {
		t.Fatalf("expected a twenty minute window, got %v", window)
	}
}

func TestDispatchUrgentNoVendorCreatesNothing(t *testing.T) {
	source := &fakeCandidateSource{} // no plumbing vendors at all
	assigner := &fakeAssigner{source: source}
	eng := newTestEngine(&fakeTicketStore{}, source, assigner, false)

	result, err := eng.DispatchUrgent(context.Background(), UrgentRequest{
		Transcript: "user: there is a leak in the basement",
	})
	if err != nil {
		t.Fatalf("DispatchUrgent() error = %v", err)
	}
	if result.Success {
		t.Fatal("expected soft failure")
	}
	if result.Reason != ReasonNoVendor {
		t.Fatalf("expected reason %q, got %q", ReasonNoVendor, result.Reason)
	}
	if result.TicketID != nil {
		t.Fatal("expected no ticket id on failure")
	}
	if len(assigner.created) != 0 {
		t.Fatalf("expected store unchanged, found %d tickets", len(assigner.created))
	}
}

func TestDispatchUrgentExplicitVendorCategoryMismatch(t *testing.T) {
	source := &fakeCandidateSource{candidates: []Candidate{
		{ID: seqID(1), Category: "electrical", Location: geo.Point{Lat: 40, Lon: -75}, RadiusKm: 50},
	}}
	assigner := &fakeAssigner{source: source}
	eng := newTestEngine(&fakeTicketStore{}, source, assigner, false)

	vendorID := seqID(1)
	_, err := eng.DispatchUrgent(context.Background(), UrgentRequest{
		Transcript: "user: the pipe burst",
		VendorID:   &vendorID,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(assigner.created) != 0 {
		t.Fatal("expected no ticket for a rejected explicit vendor")
	}
}

func TestDispatchUrgentRequiresTranscript(t *testing.T) {
	eng := newTestEngine(&fakeTicketStore{}, &fakeCandidateSource{}, &fakeAssigner{source: &fakeCandidateSource{}}, false)

	if _, err := eng.DispatchUrgent(context.Background(), UrgentRequest{}); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// ── Standard dispatch ─────────────────────────────────────────────────────────

func openTicket(category string, lat, lon *float64) *ticketdomain.Ticket {
	now := time.Now()
	return &ticketdomain.Ticket{
		ID:        uuid.New(),
		Category:  category,
		Severity:  ticketdomain.SeverityMedium,
		Lat:       lat,
		Lon:       lon,
		Status:    ticketdomain.StatusOpen,
		ExpiresAt: ticketdomain.ExpiryFor(ticketdomain.SeverityMedium, now),
		CreatedAt: now,
	}
}

func TestDispatchStandardBroadcastsToEligibleVendors(t *testing.T) {
	lat, lon := 40.05, -75.0
	ticket := openTicket("electrical", &lat, &lon)
	store := &fakeTicketStore{tickets: map[uuid.UUID]*ticketdomain.Ticket{ticket.ID: ticket}}
	source := &fakeCandidateSource{candidates: []Candidate{
		{ID: seqID(1), Category: "electrical", Location: geo.Point{Lat: 40.0, Lon: -75.0}, RadiusKm: 10},
		{ID: seqID(2), Category: "electrical", Location: geo.Point{Lat: 40.0, Lon: -75.0}, RadiusKm: 2},
		{ID: seqID(3), Category: "plumbing", Location: geo.Point{Lat: 40.0, Lon: -75.0}, RadiusKm: 100},
	}}
	eng := newTestEngine(store, source, &fakeAssigner{source: source}, false)

	result, err := eng.DispatchStandard(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("DispatchStandard() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got reason %q", result.Reason)
	}
	if len(result.VendorIDs) != 1 || result.VendorIDs[0] != seqID(1) {
		t.Fatalf("expected only the in-range electrical vendor, got %v", result.VendorIDs)
	}
	if ticket.Status != ticketdomain.StatusDispatched {
		t.Fatalf("expected ticket dispatched, got %s", ticket.Status)
	}
}

func TestDispatchStandardWithoutOriginSkipsGeoFilter(t *testing.T) {
	ticket := openTicket("electrical", nil, nil)
	store := &fakeTicketStore{tickets: map[uuid.UUID]*ticketdomain.Ticket{ticket.ID: ticket}}
	source := &fakeCandidateSource{candidates: []Candidate{
		{ID: seqID(1), Category: "electrical", Location: geo.Point{Lat: 40.0, Lon: -75.0}, RadiusKm: 1},
		{ID: seqID(2), Category: "electrical", Location: geo.Point{Lat: 52.0, Lon: 13.0}, RadiusKm: 1},
	}}
	eng := newTestEngine(store, source, &fakeAssigner{source: source}, false)

	result, err := eng.DispatchStandard(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("DispatchStandard() error = %v", err)
	}
	if len(result.VendorIDs) != 2 {
		t.Fatalf("expected category match alone to qualify both vendors, got %v", result.VendorIDs)
	}
}

func TestDispatchStandardNoVendorLeavesTicketOpen(t *testing.T) {
	ticket := openTicket("hvac", nil, nil)
	store := &fakeTicketStore{tickets: map[uuid.UUID]*ticketdomain.Ticket{ticket.ID: ticket}}
	eng := newTestEngine(store, &fakeCandidateSource{}, &fakeAssigner{source: &fakeCandidateSource{}}, false)

	result, err := eng.DispatchStandard(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("DispatchStandard() error = %v", err)
	}
	if result.Success {
		t.Fatal("expected soft failure with no vendors")
	}
	if result.Reason != ReasonNoVendor {
		t.Fatalf("expected reason %q, got %q", ReasonNoVendor, result.Reason)
	}
	if ticket.Status != ticketdomain.StatusOpen {
		t.Fatalf("expected ticket to stay open, got %s", ticket.Status)
	}
	if len(store.updates) != 0 {
		t.Fatalf("expected no status updates, got %v", store.updates)
	}
}

func TestDispatchStandardRejectsNonOpenTicket(t *testing.T) {
	ticket := openTicket("hvac", nil, nil)
	ticket.Status = ticketdomain.StatusDispatched
	store := &fakeTicketStore{tickets: map[uuid.UUID]*ticketdomain.Ticket{ticket.ID: ticket}}
	eng := newTestEngine(store, &fakeCandidateSource{}, &fakeAssigner{source: &fakeCandidateSource{}}, false)

	_, err := eng.DispatchStandard(context.Background(), ticket.ID)
	if !apperr.HasCode(err, apperr.CodeInvalidTicketState) {
		t.Fatalf("expected invalid ticket state, got %v", err)
	}
}

// ── Retry policy ──────────────────────────────────────────────────────────────

func TestDispatchStandardRetriesTransientReadOnce(t *testing.T) {
	ticket := openTicket("hvac", nil, nil)
	store := &fakeTicketStore{
		tickets:  map[uuid.UUID]*ticketdomain.Ticket{ticket.ID: ticket},
		failures: 1,
	}
	source := &fakeCandidateSource{candidates: []Candidate{
		{ID: seqID(1), Category: "hvac", Location: geo.Point{Lat: 40, Lon: -75}, RadiusKm: 50},
	}}
	eng := newTestEngine(store, source, &fakeAssigner{source: source}, false)

	result, err := eng.DispatchStandard(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("expected the retry to absorb one transient failure, got %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success after retry, got reason %q", result.Reason)
	}
}

func TestDispatchStandardSurfacesPersistentFailure(t *testing.T) {
	ticket := openTicket("hvac", nil, nil)
	store := &fakeTicketStore{
		tickets:  map[uuid.UUID]*ticketdomain.Ticket{ticket.ID: ticket},
		failures: 2,
	}
	eng := newTestEngine(store, &fakeCandidateSource{}, &fakeAssigner{source: &fakeCandidateSource{}}, false)

	_, err := eng.DispatchStandard(context.Background(), ticket.ID)
	if !apperr.HasCode(err, apperr.CodePersistenceError) {
		t.Fatalf("expected persistence error after two failures, got %v", err)
	}
}

// ── Decline ───────────────────────────────────────────────────────────────────

func TestDeclineReturnsTicketToOpen(t *testing.T) {
	vendorID := seqID(1)
	ticket := openTicket("plumbing", nil, nil)
	ticket.Status = ticketdomain.StatusDispatched
	ticket.DispatchedVendorID = &vendorID
	store := &fakeTicketStore{tickets: map[uuid.UUID]*ticketdomain.Ticket{ticket.ID: ticket}}
	source := &fakeCandidateSource{candidates: []Candidate{
		{ID: seqID(2), Category: "plumbing", Location: geo.Point{Lat: 40, Lon: -75}, RadiusKm: 50},
	}}
	eng := newTestEngine(store, source, &fakeAssigner{source: source}, false)

	if err := eng.Decline(context.Background(), ticket.ID, vendorID); err != nil {
		t.Fatalf("Decline() error = %v", err)
	}
	if ticket.Status != ticketdomain.StatusOpen {
		t.Fatalf("expected ticket back to open, got %s", ticket.Status)
	}
	if ticket.DispatchedVendorID != nil {
		t.Fatalf("expected bound vendor cleared, got %s", ticket.DispatchedVendorID)
	}

	// The released ticket is eligible for broadcast again.
	result, err := eng.DispatchStandard(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("DispatchStandard() after decline error = %v", err)
	}
	if !result.Success || len(result.VendorIDs) != 1 || result.VendorIDs[0] != seqID(2) {
		t.Fatalf("expected re-broadcast to the remaining vendor, got %+v", result)
	}
}

func TestDeclineRejectsWrongVendor(t *testing.T) {
	vendorID := seqID(1)
	ticket := openTicket("plumbing", nil, nil)
	ticket.Status = ticketdomain.StatusDispatched
	ticket.DispatchedVendorID = &vendorID
	store := &fakeTicketStore{tickets: map[uuid.UUID]*ticketdomain.Ticket{ticket.ID: ticket}}
	eng := newTestEngine(store, &fakeCandidateSource{}, &fakeAssigner{source: &fakeCandidateSource{}}, false)

	err := eng.Decline(context.Background(), ticket.ID, seqID(9))
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict for a vendor the ticket is not assigned to, got %v", err)
	}
	if ticket.Status != ticketdomain.StatusDispatched {
		t.Fatalf("expected ticket to stay dispatched, got %s", ticket.Status)
	}
}

func TestDeclineRejectsNonDispatchedTicket(t *testing.T) {
	ticket := openTicket("plumbing", nil, nil)
	store := &fakeTicketStore{tickets: map[uuid.UUID]*ticketdomain.Ticket{ticket.ID: ticket}}
	eng := newTestEngine(store, &fakeCandidateSource{}, &fakeAssigner{source: &fakeCandidateSource{}}, false)

	err := eng.Decline(context.Background(), ticket.ID, seqID(1))
	if !apperr.HasCode(err, apperr.CodeInvalidTicketState) {
		t.Fatalf("expected invalid ticket state, got %v", err)
	}
}
