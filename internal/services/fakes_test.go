package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pos_tracker_backend/internal/audit"
	"pos_tracker_backend/internal/models"
	"pos_tracker_backend/internal/repositories"
)

// In-memory repositories. The executor argument is ignored; fakeTx commits
// nothing and rolls back nothing, so tests assert on the state after an error
// only where the service itself refuses to write.

type fakeTx struct{ calls int }

func (f *fakeTx) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	return fn(nil)
}

type recordingRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingRecorder) Record(_ context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

// --- customers ---

type fakeCustomerRepo struct {
	nextID    int64
	customers map[int64]*models.Customer
	completed []int64
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: map[int64]*models.Customer{}}
}

// sameIdentity mirrors uniq_customer_identity, where a missing organization
// field is stored as ''.
func sameIdentity(a, b *models.Customer) bool {
	value := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return a.FullName == b.FullName && a.Phone == b.Phone &&
		value(a.OrganizationName) == value(b.OrganizationName) && value(a.TaxNumber) == value(b.TaxNumber)
}

func (r *fakeCustomerRepo) CreateCustomer(_ context.Context, _ repositories.SQLExecutor, c *models.Customer) (int64, error) {
	for _, existing := range r.customers {
		if existing.Code == c.Code || sameIdentity(existing, c) {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	now := time.Now()
	c.ID = r.nextID
	c.RegistrationDate = now
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.CurrentStatus == "" {
		c.CurrentStatus = models.CustomerStatusArrived
	}
	copied := *c
	r.customers[c.ID] = &copied
	return c.ID, nil
}

func (r *fakeCustomerRepo) GetCustomerByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCustomerRepo) GetCustomers(_ context.Context, _ models.CustomerFilters) ([]models.Customer, int, error) {
	out := make([]models.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *fakeCustomerRepo) UpdateCustomer(_ context.Context, _ repositories.SQLExecutor, c *models.Customer) error {
	if _, ok := r.customers[c.ID]; !ok {
		return repositories.ErrNotFound
	}
	for id, existing := range r.customers {
		if id != c.ID && sameIdentity(existing, c) {
			return repositories.ErrDuplicateKey
		}
	}
	copied := *c
	r.customers[c.ID] = &copied
	return nil
}

func (r *fakeCustomerRepo) DeleteCustomer(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.customers[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

func (r *fakeCustomerRepo) CodeExists(_ context.Context, _ repositories.SQLExecutor, code string) (bool, error) {
	for _, c := range r.customers {
		if c.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCustomerRepo) FindExactDuplicate(_ context.Context, step models.Step1Data) (*models.Customer, error) {
	for _, c := range r.customers {
		if c.FullName == step.FullName && c.Phone == step.Phone && c.CustomerType == step.CustomerType {
			copied := *c
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeCustomerRepo) FindByNameAndPhone(_ context.Context, _ repositories.SQLExecutor, fullName, phone string) (*models.Customer, error) {
	for _, c := range r.customers {
		if strings.EqualFold(c.FullName, fullName) && c.Phone == phone {
			copied := *c
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeCustomerRepo) FindByName(_ context.Context, _ repositories.SQLExecutor, fullName string) ([]models.Customer, error) {
	var out []models.Customer
	for _, c := range r.customers {
		if strings.EqualFold(c.FullName, fullName) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) FindIdentityConflict(_ context.Context, _ repositories.SQLExecutor, c *models.Customer) (*models.Customer, error) {
	for id, existing := range r.customers {
		if id != c.ID && sameIdentity(existing, c) {
			copied := *existing
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeCustomerRepo) RecordVisit(_ context.Context, _ repositories.SQLExecutor, id int64, at time.Time) error {
	c, ok := r.customers[id]
	if !ok {
		return repositories.ErrNotFound
	}
	c.TotalVisits++
	c.LastVisit = &at
	return nil
}

func (r *fakeCustomerRepo) MarkVisitCompleted(_ context.Context, _ repositories.SQLExecutor, id int64, at time.Time, spent float64) error {
	c, ok := r.customers[id]
	if !ok {
		return repositories.ErrNotFound
	}
	c.CurrentStatus = models.CustomerStatusCompleted
	c.TotalSpent += spent
	r.completed = append(r.completed, id)
	return nil
}

type fakeVehicleRepo struct {
	nextID   int64
	vehicles map[int64]*models.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: map[int64]*models.Vehicle{}}
}

func (r *fakeVehicleRepo) CreateVehicle(_ context.Context, _ repositories.SQLExecutor, v *models.Vehicle) (int64, error) {
	r.nextID++
	v.ID = r.nextID
	v.CreatedAt = time.Now()
	copied := *v
	r.vehicles[v.ID] = &copied
	return v.ID, nil
}

func (r *fakeVehicleRepo) GetVehicleByID(_ context.Context, id int64) (*models.Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (r *fakeVehicleRepo) GetVehiclesByCustomer(_ context.Context, customerID int64) ([]models.Vehicle, error) {
	var out []models.Vehicle
	for _, v := range r.vehicles {
		if v.CustomerID == customerID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *fakeVehicleRepo) UpdateVehicle(_ context.Context, _ repositories.SQLExecutor, v *models.Vehicle) error {
	if _, ok := r.vehicles[v.ID]; !ok {
		return repositories.ErrNotFound
	}
	copied := *v
	r.vehicles[v.ID] = &copied
	return nil
}

func (r *fakeVehicleRepo) DeleteVehicle(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.vehicles[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.vehicles, id)
	return nil
}

// --- inventory ---

type fakeInventoryRepo struct {
	nextBrandID int64
	nextItemID  int64
	brands      map[int64]*models.Brand
	items       map[int64]*models.InventoryItem
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{brands: map[int64]*models.Brand{}, items: map[int64]*models.InventoryItem{}}
}

// seed adds a brand (created on first use) and an item with the given stock.
func (r *fakeInventoryRepo) seed(itemName, brandName string, quantity int) *models.InventoryItem {
	var brand *models.Brand
	for _, b := range r.brands {
		if strings.EqualFold(b.Name, brandName) {
			brand = b
		}
	}
	if brand == nil {
		r.nextBrandID++
		brand = &models.Brand{ID: r.nextBrandID, Name: brandName, IsActive: true}
		r.brands[brand.ID] = brand
	}
	r.nextItemID++
	item := &models.InventoryItem{
		ID: r.nextItemID, Name: itemName, BrandID: brand.ID, BrandName: brand.Name,
		Quantity: quantity, ReorderLevel: 5, IsActive: true,
	}
	r.items[item.ID] = item
	return item
}

func (r *fakeInventoryRepo) CreateBrand(_ context.Context, _ repositories.SQLExecutor, b *models.Brand) (int64, error) {
	for _, existing := range r.brands {
		if strings.EqualFold(existing.Name, b.Name) {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextBrandID++
	b.ID = r.nextBrandID
	copied := *b
	r.brands[b.ID] = &copied
	return b.ID, nil
}

func (r *fakeInventoryRepo) GetBrandByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Brand, error) {
	b, ok := r.brands[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeInventoryRepo) FindBrandByName(_ context.Context, _ repositories.SQLExecutor, name string) (*models.Brand, error) {
	for _, b := range r.brands {
		if strings.EqualFold(b.Name, name) {
			copied := *b
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeInventoryRepo) GetBrands(_ context.Context, activeOnly bool) ([]models.Brand, error) {
	var out []models.Brand
	for _, b := range r.brands {
		if !activeOnly || b.IsActive {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeInventoryRepo) CountItemsForBrand(_ context.Context, brandID int64) (int, error) {
	n := 0
	for _, it := range r.items {
		if it.BrandID == brandID {
			n++
		}
	}
	return n, nil
}

func (r *fakeInventoryRepo) DeleteBrand(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.brands[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.brands, id)
	return nil
}

func (r *fakeInventoryRepo) CreateItem(_ context.Context, _ repositories.SQLExecutor, item *models.InventoryItem) (int64, error) {
	for _, it := range r.items {
		if it.Name == item.Name && it.BrandID == item.BrandID {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextItemID++
	item.ID = r.nextItemID
	copied := *item
	copied.Quantity = 0
	r.items[item.ID] = &copied
	return item.ID, nil
}

func (r *fakeInventoryRepo) GetItemByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.InventoryItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *it
	return &copied, nil
}

func (r *fakeInventoryRepo) GetItems(_ context.Context, _ models.InventoryItemFilters) ([]models.InventoryItem, int, error) {
	out := r.sortedItems()
	return out, len(out), nil
}

func (r *fakeInventoryRepo) UpdateItem(_ context.Context, _ repositories.SQLExecutor, item *models.InventoryItem) error {
	existing, ok := r.items[item.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	copied := *item
	copied.Quantity = existing.Quantity
	r.items[item.ID] = &copied
	return nil
}

func (r *fakeInventoryRepo) DeleteItem(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeInventoryRepo) SKUExists(_ context.Context, sku string) (bool, error) {
	for _, it := range r.items {
		if it.SKU != nil && *it.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInventoryRepo) sortedItems() []models.InventoryItem {
	out := make([]models.InventoryItem, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeInventoryRepo) FindItemByNameAndBrand(_ context.Context, _ repositories.SQLExecutor, itemName, brandName string) (*models.InventoryItem, error) {
	for _, it := range r.sortedItems() {
		if it.Name == itemName && strings.EqualFold(it.BrandName, brandName) {
			return &it, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeInventoryRepo) FindItemByNameAndBrandID(_ context.Context, _ repositories.SQLExecutor, itemName string, brandID int64) (*models.InventoryItem, error) {
	for _, it := range r.sortedItems() {
		if it.Name == itemName && it.BrandID == brandID {
			return &it, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeInventoryRepo) SumAvailable(_ context.Context, _ repositories.SQLExecutor, itemName, brandName string) (int, error) {
	total := 0
	for _, it := range r.items {
		if strings.EqualFold(it.Name, itemName) && strings.EqualFold(it.BrandName, brandName) {
			total += it.Quantity
		}
	}
	return total, nil
}

func (r *fakeInventoryRepo) ApplyDelta(_ context.Context, _ repositories.SQLExecutor, itemID int64, delta int) (int, int, error) {
	it, ok := r.items[itemID]
	if !ok {
		return 0, 0, repositories.ErrNotFound
	}
	if it.Quantity+delta < 0 {
		return 0, 0, repositories.ErrInsufficientStock
	}
	previous := it.Quantity
	it.Quantity += delta
	return previous, it.Quantity, nil
}

func (r *fakeInventoryRepo) GetLowStockItems(_ context.Context, threshold *int) ([]models.InventoryItem, error) {
	var out []models.InventoryItem
	for _, it := range r.sortedItems() {
		limit := it.ReorderLevel
		if threshold != nil {
			limit = *threshold
		}
		if it.IsActive && it.Quantity <= limit {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *fakeInventoryRepo) GetItemSummaries(_ context.Context) ([]models.ItemSummary, error) {
	var out []models.ItemSummary
	for _, it := range r.sortedItems() {
		out = append(out, models.ItemSummary{Name: it.Name, Brand: it.BrandName, TotalQuantity: it.Quantity})
	}
	return out, nil
}

func (r *fakeInventoryRepo) GetBrandNamesForItem(_ context.Context, itemName string) ([]string, error) {
	var out []string
	for _, it := range r.sortedItems() {
		if it.Name == itemName {
			out = append(out, it.BrandName)
		}
	}
	return out, nil
}

type fakeAdjustmentRepo struct {
	nextID      int64
	adjustments []models.InventoryAdjustment
}

func (r *fakeAdjustmentRepo) CreateAdjustment(_ context.Context, _ repositories.SQLExecutor, a *models.InventoryAdjustment) (int64, error) {
	r.nextID++
	a.ID = r.nextID
	a.CreatedAt = time.Now()
	r.adjustments = append(r.adjustments, *a)
	return a.ID, nil
}

func (r *fakeAdjustmentRepo) GetAdjustments(_ context.Context, itemID *int64, adjustmentType *string, _, _ int) ([]models.InventoryAdjustment, int, error) {
	var out []models.InventoryAdjustment
	for i := len(r.adjustments) - 1; i >= 0; i-- {
		a := r.adjustments[i]
		if itemID != nil && a.ItemID != *itemID {
			continue
		}
		if adjustmentType != nil && string(a.AdjustmentType) != *adjustmentType {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

// --- orders ---

type fakeOrderRepo struct {
	nextID int64
	orders map[int64]*models.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int64]*models.Order{}}
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, _ repositories.SQLExecutor, o *models.Order) (int64, error) {
	r.nextID++
	o.ID = r.nextID
	o.UpdatedAt = o.CreatedAt
	copied := *o
	r.orders[o.ID] = &copied
	return o.ID, nil
}

func (r *fakeOrderRepo) OrderNumberExists(_ context.Context, _ repositories.SQLExecutor, number string) (bool, error) {
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOrderRepo) GetOrderByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *fakeOrderRepo) GetOrderForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.Order, error) {
	return r.GetOrderByID(ctx, exec, id)
}

func (r *fakeOrderRepo) GetOrders(_ context.Context, _ models.OrderFilters) ([]models.Order, int, error) {
	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (r *fakeOrderRepo) GetRecentActiveOrders(ctx context.Context, limit int) ([]models.Order, error) {
	all, _, _ := r.GetOrders(ctx, models.OrderFilters{})
	var out []models.Order
	for _, o := range all {
		if !o.Status.IsTerminal() && len(out) < limit {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateOrderDetails(_ context.Context, _ repositories.SQLExecutor, o *models.Order) error {
	if _, ok := r.orders[o.ID]; !ok {
		return repositories.ErrNotFound
	}
	copied := *o
	r.orders[o.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(ctx context.Context, exec repositories.SQLExecutor, o *models.Order) error {
	return r.UpdateOrderDetails(ctx, exec, o)
}

func (r *fakeOrderRepo) DeleteOrder(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if _, ok := r.orders[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

// --- reports ---

type fakeReportRepo struct {
	calls    int
	dayStart time.Time
	summary  models.DashboardSummary
}

func (r *fakeReportRepo) GetDashboardSummary(_ context.Context, dayStart time.Time) (*models.DashboardSummary, error) {
	r.calls++
	r.dayStart = dayStart
	s := r.summary
	return &s, nil
}

var (
	_ repositories.TxManager                     = (*fakeTx)(nil)
	_ repositories.CustomerRepository            = (*fakeCustomerRepo)(nil)
	_ repositories.VehicleRepository             = (*fakeVehicleRepo)(nil)
	_ repositories.InventoryRepository           = (*fakeInventoryRepo)(nil)
	_ repositories.InventoryAdjustmentRepository = (*fakeAdjustmentRepo)(nil)
	_ repositories.OrderRepository               = (*fakeOrderRepo)(nil)
	_ repositories.ReportRepository              = (*fakeReportRepo)(nil)
	_ audit.Recorder                             = (*recordingRecorder)(nil)
)
