package sales

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"saletrack.org/internal/ids"
)

// Memory implements Store in-process with a single mutex, which trivially
// gives the create and status-change operations their atomicity. It backs
// service and handler tests and local development.
type Memory struct {
	mu         sync.RWMutex
	products   map[string]Product
	franchises map[string]Franchise
	statuses   []Status
	records    map[string]*Record
	history    map[string][]HistoryEntry
	userNames  map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		products:   make(map[string]Product),
		franchises: make(map[string]Franchise),
		records:    make(map[string]*Record),
		history:    make(map[string][]HistoryEntry),
		userNames:  make(map[string]string),
	}
}

// SeedProduct adds a reference product.
func (m *Memory) SeedProduct(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// SeedFranchise adds a reference franchise.
func (m *Memory) SeedFranchise(f Franchise) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.franchises[f.ID] = f
}

// SeedStatus adds a lifecycle status; the set is kept in display order.
func (m *Memory) SeedStatus(s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, s)
	sort.Slice(m.statuses, func(i, j int) bool { return m.statuses[i].Order < m.statuses[j].Order })
}

// SeedUserName registers a display name used when resolving record joins.
func (m *Memory) SeedUserName(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userNames[id] = name
}

func (m *Memory) Product(ctx context.Context, id string) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) Products(ctx context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Franchise(ctx context.Context, id string) (Franchise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.franchises[id]
	if !ok {
		return Franchise{}, ErrNotFound
	}
	return f, nil
}

func (m *Memory) Franchises(ctx context.Context) ([]Franchise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Franchise, 0, len(m.franchises))
	for _, f := range m.franchises {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Statuses(ctx context.Context) ([]Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Status, len(m.statuses))
	copy(out, m.statuses)
	return out, nil
}

func (m *Memory) Status(ctx context.Context, id string) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.statuses {
		if s.ID == id {
			return s, nil
		}
	}
	return Status{}, ErrNotFound
}

func (m *Memory) InitialStatus(ctx context.Context) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.statuses) == 0 {
		return Status{}, ErrNotFound
	}
	return m.statuses[0], nil
}

func (m *Memory) CreateRecord(ctx context.Context, rec *Record, entry *HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *rec
	m.records[rec.ID] = &copied
	m.history[rec.ID] = append(m.history[rec.ID], *entry)
	return nil
}

func (m *Memory) Record(ctx context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return m.resolve(*rec), nil
}

func (m *Memory) UpdateRecord(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; !ok {
		return ErrNotFound
	}
	copied := *rec
	m.records[rec.ID] = &copied
	return nil
}

func (m *Memory) ChangeStatus(ctx context.Context, saleID, newStatusID, actorID, comment string, at time.Time) (HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[saleID]
	if !ok {
		return HistoryEntry{}, ErrNotFound
	}
	previous := rec.StatusID
	rec.StatusID = newStatusID
	rec.UpdatedAt = at
	entry := HistoryEntry{
		ID:               ids.New(),
		SaleID:           saleID,
		PreviousStatusID: &previous,
		NewStatusID:      newStatusID,
		ActorID:          actorID,
		Comment:          comment,
		CreatedAt:        at,
	}
	m.history[saleID] = append(m.history[saleID], entry)
	return entry, nil
}

func (m *Memory) DeleteRecord(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	delete(m.history, id)
	return nil
}

func (m *Memory) ListRecords(ctx context.Context, creatorID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.records {
		if creatorID != "" && rec.CreatedByID != creatorID {
			continue
		}
		out = append(out, m.resolve(*rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) History(ctx context.Context, saleID string) ([]HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries, ok := m.history[saleID]
	if !ok {
		return nil, nil
	}
	out := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = m.resolveEntry(e)
	}
	return out, nil
}

func (m *Memory) Stats(ctx context.Context, includeAdvisors bool) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		ByProduct: []ProductStat{},
		ByStatus:  []StatusStat{},
		ByDay:     []DayStat{},
	}

	byProduct := make(map[string]*ProductStat)
	byStatus := make(map[string]int)
	byAdvisor := make(map[string]*AdvisorStat)
	byDay := make(map[string]*DayStat)
	cutoff := time.Now().UTC().AddDate(0, 0, -30)

	for _, rec := range m.records {
		stats.TotalRecords++
		stats.TotalRequestedLimit += rec.RequestedLimit

		name := m.productName(rec.ProductID)
		ps, ok := byProduct[name]
		if !ok {
			ps = &ProductStat{Product: name}
			byProduct[name] = ps
		}
		ps.Count++
		ps.TotalRequestedLimit += rec.RequestedLimit

		byStatus[m.statusName(rec.StatusID)]++

		advisor := m.userNames[rec.CreatedByID]
		if advisor == "" {
			advisor = rec.CreatedByID
		}
		as, ok := byAdvisor[advisor]
		if !ok {
			as = &AdvisorStat{Advisor: advisor}
			byAdvisor[advisor] = as
		}
		as.Count++
		as.TotalRequestedLimit += rec.RequestedLimit

		if rec.CreatedAt.After(cutoff) {
			day := rec.CreatedAt.Format("2006-01-02")
			ds, ok := byDay[day]
			if !ok {
				ds = &DayStat{Date: day}
				byDay[day] = ds
			}
			ds.Count++
			ds.TotalRequestedLimit += rec.RequestedLimit
		}
	}

	for _, ps := range byProduct {
		stats.ByProduct = append(stats.ByProduct, *ps)
	}
	sort.Slice(stats.ByProduct, func(i, j int) bool { return stats.ByProduct[i].Count > stats.ByProduct[j].Count })

	for _, st := range m.statuses {
		stats.ByStatus = append(stats.ByStatus, StatusStat{Status: st.Name, Count: byStatus[st.Name]})
	}

	if includeAdvisors {
		stats.ByAdvisor = []AdvisorStat{}
		for _, as := range byAdvisor {
			stats.ByAdvisor = append(stats.ByAdvisor, *as)
		}
		sort.Slice(stats.ByAdvisor, func(i, j int) bool { return stats.ByAdvisor[i].Count > stats.ByAdvisor[j].Count })
	}

	for _, ds := range byDay {
		stats.ByDay = append(stats.ByDay, *ds)
	}
	sort.Slice(stats.ByDay, func(i, j int) bool { return stats.ByDay[i].Date > stats.ByDay[j].Date })

	return stats, nil
}

// resolve fills the joined display names on a copy of the record.
func (m *Memory) resolve(rec Record) Record {
	rec.ProductName = m.productName(rec.ProductID)
	rec.StatusName = m.statusName(rec.StatusID)
	if rec.FranchiseID != nil {
		if f, ok := m.franchises[*rec.FranchiseID]; ok {
			name := f.Name
			rec.FranchiseName = &name
		}
	}
	if name, ok := m.userNames[rec.CreatedByID]; ok {
		rec.CreatedByName = name
	}
	if rec.UpdatedByID != nil {
		if name, ok := m.userNames[*rec.UpdatedByID]; ok {
			copied := name
			rec.UpdatedByName = &copied
		}
	}
	return rec
}

func (m *Memory) resolveEntry(e HistoryEntry) HistoryEntry {
	if e.PreviousStatusID != nil {
		name := m.statusName(*e.PreviousStatusID)
		e.PreviousStatusName = &name
	}
	e.NewStatusName = m.statusName(e.NewStatusID)
	if name, ok := m.userNames[e.ActorID]; ok {
		e.ActorName = name
	}
	return e
}

func (m *Memory) productName(id string) string {
	if p, ok := m.products[id]; ok {
		return p.Name
	}
	return id
}

func (m *Memory) statusName(id string) string {
	for _, s := range m.statuses {
		if s.ID == id {
			return s.Name
		}
	}
	return strings.TrimSpace(id)
}
