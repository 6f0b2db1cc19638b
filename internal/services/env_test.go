package services

import (
	"time"

	"pos_tracker_backend/internal/cache"
	"pos_tracker_backend/internal/session"
)

type testEnv struct {
	tx          *fakeTx
	customers   *fakeCustomerRepo
	vehicles    *fakeVehicleRepo
	inventory   *fakeInventoryRepo
	adjustments *fakeAdjustmentRepo
	orders      *fakeOrderRepo
	cache       *cache.MemoryCache
	drafts      *session.MemoryDraftStore
	recorder    *recordingRecorder

	customerSvc     CustomerService
	inventorySvc    InventoryService
	orderSvc        *orderService
	registrationSvc RegistrationService
}

func newTestEnv() *testEnv {
	e := &testEnv{
		tx:          &fakeTx{},
		customers:   newFakeCustomerRepo(),
		vehicles:    newFakeVehicleRepo(),
		inventory:   newFakeInventoryRepo(),
		adjustments: &fakeAdjustmentRepo{},
		orders:      newFakeOrderRepo(),
		cache:       cache.NewMemoryCache(),
		drafts:      session.NewMemoryDraftStore(time.Hour),
		recorder:    &recordingRecorder{},
	}
	e.customerSvc = NewCustomerService(e.customers, e.vehicles, e.tx)
	e.inventorySvc = NewInventoryService(e.inventory, e.adjustments, e.tx, e.cache, e.recorder)
	e.orderSvc = NewOrderService(e.orders, e.customers, e.inventorySvc, e.tx, e.recorder).(*orderService)
	e.registrationSvc = NewRegistrationService(e.drafts, e.customerSvc, e.orderSvc, e.inventorySvc,
		e.customers, e.vehicles, e.inventory, e.tx, e.recorder)
	return e
}
