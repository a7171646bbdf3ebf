package wizard

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"taller-backend/internal/models"
)

func validCliente() models.ClienteData {
	return models.ClienteData{
		Nombre:    "Ana",
		Apellidos: "Gomez",
		DNI:       "00000000T",
		Telefono:  "666123456",
	}
}

func device(tempID, imei string) models.DispositivoGuardado {
	return models.DispositivoGuardado{
		Ref:    models.DispositivoRef{Kind: models.DispositivoBorrador, TempID: tempID},
		Marca:  "Apple",
		Modelo: "iPhone 13",
		IMEI:   imei,
	}
}

func TestAgregarDispositivoRejectsDuplicateIMEI(t *testing.T) {
	s := NewSession(models.FullClientForm)
	defer s.Close()

	if err := s.AgregarDispositivo(device("a", "490154203237518")); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := s.AgregarDispositivo(device("b", "490154203237518")); err != ErrIMEIDuplicado {
		t.Fatalf("expected ErrIMEIDuplicado, got %v", err)
	}
	if len(s.Dispositivos) != 1 {
		t.Fatalf("device list length changed: %d", len(s.Dispositivos))
	}
}

func TestSyncTerminalsIsIdempotent(t *testing.T) {
	devices := []models.DispositivoGuardado{device("a", "1"), device("b", "2")}
	once := SyncTerminals(devices, nil)
	once[0].DiagnosticoCompletado = true
	once[0].Diagnostico = &models.DiagnosticoData{ProblemasReportados: []string{"pantalla rota"}}

	twice := SyncTerminals(devices, once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("re-sync with unchanged devices mutated terminals:\n%+v\nvs\n%+v", once, twice)
	}
}

func TestSyncTerminalsPreservesAndDrops(t *testing.T) {
	devices := []models.DispositivoGuardado{device("a", "1"), device("b", "2")}
	terms := SyncTerminals(devices, nil)
	terms[1].PresupuestoCompletado = true

	// Remove device a, keep b with an edited payload.
	devices[1].Color = "negro"
	next := SyncTerminals(devices[1:], terms)
	if len(next) != 1 {
		t.Fatalf("expected 1 terminal, got %d", len(next))
	}
	if !next[0].PresupuestoCompletado {
		t.Fatal("surviving terminal lost its completion flag")
	}
	if next[0].Dispositivo.Color != "negro" {
		t.Fatal("device payload was not replaced")
	}
}

func TestStepGuardsAreMonotonic(t *testing.T) {
	s := NewSession(models.FullClientForm)
	defer s.Close()

	for paso := PasoDispositivos; paso <= PasoResumen; paso++ {
		if err := s.IrAPaso(paso); err == nil {
			t.Fatalf("step %d reachable without a valid client", paso)
		}
	}

	s.SetCliente(validCliente())
	if err := s.IrAPaso(PasoDispositivos); err != nil {
		t.Fatalf("step 2 blocked with a valid client: %v", err)
	}
	for paso := PasoDiagnostico; paso <= PasoResumen; paso++ {
		if err := s.IrAPaso(paso); err == nil {
			t.Fatalf("step %d reachable without devices", paso)
		}
	}

	if err := s.AgregarDispositivo(device("a", "1")); err != nil {
		t.Fatalf("add device: %v", err)
	}
	if err := s.IrAPaso(PasoDiagnostico); err != nil {
		t.Fatalf("step 3 blocked with a valid device: %v", err)
	}
	if err := s.IrAPaso(PasoPresupuesto); err == nil {
		t.Fatal("step 4 reachable without a completed diagnosis")
	}

	// Backward navigation is always allowed.
	if err := s.IrAPaso(PasoCliente); err != nil {
		t.Fatalf("backward move blocked: %v", err)
	}
}

func TestStepNavigationIsSafeUnderConcurrentEdits(t *testing.T) {
	s := NewSession(models.FullClientForm)
	defer s.Close()
	s.SetCliente(validCliente())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.SetCliente(validCliente())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.IrAPaso(PasoDispositivos)
			s.Avanzar()
			s.IrAPaso(PasoCliente)
		}
	}()
	wg.Wait()

	if paso := s.PasoActual; paso < PasoCliente || paso > PasoResumen {
		t.Fatalf("session ended on an invalid step: %d", paso)
	}
}

func TestAutoCommitOnTerminalSwitch(t *testing.T) {
	s := NewSession(models.FullClientForm)
	defer s.Close()
	s.SetCliente(validCliente())
	a, b := device("a", "1"), device("b", "2")
	if err := s.AgregarDispositivo(a); err != nil {
		t.Fatal(err)
	}
	if err := s.AgregarDispositivo(b); err != nil {
		t.Fatal(err)
	}

	if _, _, err := s.SeleccionarTerminal(s.Dispositivos[0].Ref); err != nil {
		t.Fatal(err)
	}
	if err := s.EditarDiagnostico(s.Dispositivos[0].Ref, models.DiagnosticoData{
		ProblemasReportados: []string{"no enciende"},
	}); err != nil {
		t.Fatal(err)
	}

	// Switching away commits the non-empty in-progress diagnosis.
	if _, _, err := s.SeleccionarTerminal(s.Dispositivos[1].Ref); err != nil {
		t.Fatal(err)
	}
	if !s.Terminales[0].DiagnosticoCompletado {
		t.Fatal("non-empty diagnosis was not auto-committed on switch")
	}

	// Clearing all faults and switching away flips the flag back off.
	if _, _, err := s.SeleccionarTerminal(s.Dispositivos[0].Ref); err != nil {
		t.Fatal(err)
	}
	if err := s.EditarDiagnostico(s.Dispositivos[0].Ref, models.DiagnosticoData{}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.SeleccionarTerminal(s.Dispositivos[1].Ref); err != nil {
		t.Fatal(err)
	}
	if s.Terminales[0].DiagnosticoCompletado {
		t.Fatal("terminal looks complete with an empty diagnosis")
	}
}

func TestPresupuestoItemsStayFlattened(t *testing.T) {
	s := NewSession(models.FullClientForm)
	defer s.Close()
	s.SetCliente(validCliente())
	if err := s.AgregarDispositivo(device("a", "1")); err != nil {
		t.Fatal(err)
	}
	ref := s.Dispositivos[0].Ref

	p := models.PresupuestoData{
		PresupuestoPorAveria: []models.GrupoAveria{
			{Averia: "pantalla", Items: []models.PresupuestoItem{
				{Concepto: "Pantalla OLED", Precio: 80, Cantidad: 1},
				{Concepto: "Mano de obra", Precio: 25, Cantidad: 1},
			}},
			{Averia: "bateria", Items: []models.PresupuestoItem{
				{Concepto: "Bateria", Precio: 30, Cantidad: 1},
			}},
		},
	}
	if err := s.EditarPresupuesto(ref, p); err != nil {
		t.Fatal(err)
	}
	s.CommitTerminal(ref)

	got := s.Terminales[0].Presupuesto
	want := []models.PresupuestoItem{
		{Concepto: "Pantalla OLED", Precio: 80, Cantidad: 1},
		{Concepto: "Mano de obra", Precio: 25, Cantidad: 1},
		{Concepto: "Bateria", Precio: 30, Cantidad: 1},
	}
	if !reflect.DeepEqual(got.Items, want) {
		t.Fatalf("items diverged from grouped structure: %+v", got.Items)
	}

	// Mutating a group and re-editing rebuilds the flat list.
	got2 := *got
	got2.PresupuestoPorAveria = got2.PresupuestoPorAveria[:1]
	if err := s.EditarPresupuesto(ref, got2); err != nil {
		t.Fatal(err)
	}
	s.CommitTerminal(ref)
	if len(s.Terminales[0].Presupuesto.Items) != 2 {
		t.Fatalf("items not rebuilt after group removal: %+v", s.Terminales[0].Presupuesto.Items)
	}
}

func TestDeriveTotalsFixture(t *testing.T) {
	terms := []models.TerminalCompleto{
		{
			PresupuestoCompletado: true,
			Presupuesto: &models.PresupuestoData{
				Items:     []models.PresupuestoItem{{Precio: 10, Cantidad: 2}},
				Descuento: 0,
			},
		},
		{
			PresupuestoCompletado: true,
			Presupuesto: &models.PresupuestoData{
				Items:     []models.PresupuestoItem{{Precio: 5, Cantidad: 1}},
				Descuento: 1, TipoDescuento: "cantidad",
			},
		},
	}
	got := DeriveTotals(terms)
	if got.Subtotal != 25 || got.Descuento != 1 || got.Total != 24 {
		t.Fatalf("got subtotal=%v descuento=%v total=%v, want 25/1/24", got.Subtotal, got.Descuento, got.Total)
	}
	if got.TerminalesConPresupuesto != 2 {
		t.Fatalf("expected 2 terminals with quotes, got %d", got.TerminalesConPresupuesto)
	}
}

func TestDeriveTotalsAnticipoUsesGlobalTotal(t *testing.T) {
	terms := []models.TerminalCompleto{
		{
			PresupuestoCompletado: true,
			Presupuesto: &models.PresupuestoData{
				Items:              []models.PresupuestoItem{{Precio: 100, Cantidad: 1}},
				RequiereAnticipo:   true,
				PorcentajeAnticipo: 50,
			},
		},
		{
			PresupuestoCompletado: true,
			Presupuesto: &models.PresupuestoData{
				Items: []models.PresupuestoItem{{Precio: 100, Cantidad: 1}},
			},
		},
	}
	got := DeriveTotals(terms)
	// Deposit base is the global total (200), not the terminal's own
	// subtotal (100).
	if got.Anticipo != 100 {
		t.Fatalf("anticipo = %v, want 100", got.Anticipo)
	}
}

func TestComputeDirty(t *testing.T) {
	s := NewSession(models.FullClientForm)
	defer s.Close()
	s.SetCliente(validCliente())
	if err := s.AgregarDispositivo(device("a", "1")); err != nil {
		t.Fatal(err)
	}
	s.CaptureBaseline()
	if s.ComputeDirty() {
		t.Fatal("clean session reported dirty right after baseline capture")
	}

	s.SetCliente(models.ClienteData{Nombre: "Luis"})
	if !s.ComputeDirty() {
		t.Fatal("client change not detected")
	}

	s.SetCliente(validCliente())
	if s.ComputeDirty() {
		t.Fatal("reverted client still reported dirty")
	}

	s.Submitting = true
	s.SetCliente(models.ClienteData{Nombre: "Luis"})
	if s.ComputeDirty() {
		t.Fatal("submitting session must not report dirty")
	}
}

func TestDraftExpiry(t *testing.T) {
	store := NewMemoryDraftStore()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	snap := &models.DraftSnapshot{
		Timestamp:  now,
		PasoActual: 3,
		DispositivosAgregados: []models.DispositivoGuardado{
			device("a", "1"),
		},
		Version: models.DraftVersion,
	}
	if err := store.Save(context.Background(), "orden:7", snap); err != nil {
		t.Fatal(err)
	}

	t.Run("23 hours later is recoverable", func(t *testing.T) {
		store.SetClock(func() time.Time { return now.Add(23 * time.Hour) })
		loaded, err := store.Load(context.Background(), "orden:7")
		if err != nil {
			t.Fatal(err)
		}
		if loaded == nil || store.IsExpired(loaded) {
			t.Fatal("23h-old draft should be offered for recovery")
		}
	})

	t.Run("25 hours later is discarded", func(t *testing.T) {
		store.SetClock(func() time.Time { return now.Add(25 * time.Hour) })
		loaded, err := store.Load(context.Background(), "orden:7")
		if err != nil {
			t.Fatal(err)
		}
		if loaded != nil && !store.IsExpired(loaded) {
			t.Fatal("25h-old draft should be expired")
		}
	})

	t.Run("unknown version is expired", func(t *testing.T) {
		store.SetClock(func() time.Time { return now })
		old := *snap
		old.Version = models.DraftVersion - 1
		if !store.IsExpired(&old) {
			t.Fatal("snapshot with stale version accepted")
		}
	})
}

func TestManagerOpenOffersAndRecoversDraft(t *testing.T) {
	store := NewMemoryDraftStore()
	m := NewManager(store)
	defer m.Shutdown()
	orden := 42

	snap := &models.DraftSnapshot{
		Timestamp:             time.Now(),
		PasoActual:            3,
		ClienteData:           validCliente(),
		ClienteValido:         true,
		DispositivosAgregados: []models.DispositivoGuardado{device("a", "1")},
		DispositivosValidos:   true,
		Version:               models.DraftVersion,
	}
	if err := store.Save(context.Background(), "orden:42", snap); err != nil {
		t.Fatal(err)
	}

	res, err := m.Open(context.Background(), models.FullClientForm, &orden)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close(res.Session.ID)
	if res.Draft == nil {
		t.Fatal("stored draft was not offered on open")
	}

	if err := m.RecoverDraft(context.Background(), res.Session.ID); err != nil {
		t.Fatal(err)
	}
	if res.Session.PasoActual != 3 || len(res.Session.Dispositivos) != 1 {
		t.Fatalf("draft not restored: paso=%d dispositivos=%d", res.Session.PasoActual, len(res.Session.Dispositivos))
	}
	if len(res.Session.Terminales) != 1 {
		t.Fatal("terminals not rebuilt from restored devices")
	}
}

func TestManagerNewOrderDraftSurvivesReopen(t *testing.T) {
	store := NewMemoryDraftStore()
	m := NewManager(store)
	defer m.Shutdown()
	ctx := context.Background()

	first, err := m.Open(ctx, models.FullClientForm, nil)
	if err != nil {
		t.Fatal(err)
	}
	first.Session.SetCliente(validCliente())
	if err := first.Session.AgregarDispositivo(device("a", "1")); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, draftKeyFor(first.Session), first.Session.Snapshot()); err != nil {
		t.Fatal(err)
	}
	m.Close(first.Session.ID)

	// A fresh session for a new order must land on the same key.
	second, err := m.Open(ctx, models.FullClientForm, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close(second.Session.ID)
	if second.Draft == nil {
		t.Fatal("draft from the previous new-order session was not offered")
	}
	if len(second.Draft.DispositivosAgregados) != 1 {
		t.Fatalf("offered draft lost its devices: %+v", second.Draft)
	}
}

func TestManagerReapsIdleSessions(t *testing.T) {
	store := NewMemoryDraftStore()
	m := NewManager(store)
	defer m.Shutdown()
	ctx := context.Background()

	res, err := m.Open(ctx, models.FullClientForm, nil)
	if err != nil {
		t.Fatal(err)
	}
	res.Session.SetCliente(validCliente())
	if err := res.Session.AgregarDispositivo(device("a", "1")); err != nil {
		t.Fatal(err)
	}

	if n := m.ReapIdle(time.Hour); n != 0 {
		t.Fatalf("recently active session was reaped: %d", n)
	}
	if n := m.ReapIdle(-time.Second); n != 1 {
		t.Fatalf("idle session not reaped, got %d", n)
	}
	if m.Count() != 0 {
		t.Fatalf("session still registered after reap: %d", m.Count())
	}

	// The reaper flushes first, so the draft stays recoverable.
	snap, err := store.Load(ctx, "nueva:full")
	if err != nil {
		t.Fatal(err)
	}
	if snap == nil {
		t.Fatal("draft was not flushed before the session closed")
	}
}

type brokenDraftStore struct {
	DraftStore
}

func (brokenDraftStore) Load(ctx context.Context, key string) (*models.DraftSnapshot, error) {
	return nil, errors.New("redis: connection refused")
}

func TestManagerOpensWhenDraftStoreFails(t *testing.T) {
	m := NewManager(brokenDraftStore{NewMemoryDraftStore()})
	defer m.Shutdown()

	res, err := m.Open(context.Background(), models.FullClientForm, nil)
	if err != nil {
		t.Fatalf("open failed on a broken draft store: %v", err)
	}
	defer m.Close(res.Session.ID)
	if res.Draft != nil {
		t.Fatal("no draft should be offered when the store cannot be read")
	}
}

func TestBuildSubmissionRevalidatesGates(t *testing.T) {
	s := NewSession(models.FullClientForm)
	defer s.Close()
	s.SetCliente(validCliente())
	if err := s.AgregarDispositivo(device("a", "1")); err != nil {
		t.Fatal(err)
	}

	if _, err := s.BuildSubmission(""); err == nil {
		t.Fatal("submission allowed without completed diagnosis and quote")
	}

	ref := s.Dispositivos[0].Ref
	if err := s.EditarDiagnostico(ref, models.DiagnosticoData{ProblemasReportados: []string{"pantalla"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.EditarPresupuesto(ref, models.PresupuestoData{
		PresupuestoPorAveria: []models.GrupoAveria{
			{Averia: "pantalla", Items: []models.PresupuestoItem{{Concepto: "Pantalla", Precio: 80, Cantidad: 1}}},
		},
	}); err != nil {
		t.Fatal(err)
	}

	// BuildSubmission commits pending edits itself.
	req, err := s.BuildSubmission("cliente con prisa")
	if err != nil {
		t.Fatalf("submission rejected: %v", err)
	}
	if req.Totales.Total != 80 {
		t.Fatalf("total = %v, want 80", req.Totales.Total)
	}
	if len(req.Terminales) != 1 || !req.Terminales[0].PresupuestoCompletado {
		t.Fatal("payload missing committed terminal")
	}
}
