package wizard

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"taller-backend/internal/models"
	"taller-backend/internal/timeutil"
)

// commitDelay is how long after the last diagnosis/quote edit a
// terminal's completion flag is recomputed. Edits arrive per-keystroke;
// committing each one would thrash the flag.
const commitDelay = 700 * time.Millisecond

var (
	ErrIMEIDuplicado       = errors.New("ya existe un dispositivo con ese IMEI en la orden")
	ErrDispositivoInvalido = errors.New("el dispositivo necesita marca, modelo e IMEI")
	ErrTerminalNoExiste    = errors.New("el terminal no existe en la orden")
	ErrSesionCerrada       = errors.New("la sesion del asistente esta cerrada")
)

// Session holds the full state of one repair-order wizard walk: the
// client record, the device list, one terminal per device, the active
// step, the in-progress diagnosis/quote edits, and the baseline used
// for unsaved-changes detection.
type Session struct {
	mu sync.Mutex

	ID      string
	OrdenID *int // set when editing an existing order
	Variant models.FormVariant
	Creada  time.Time

	PasoActual    int
	Cliente       models.ClienteData
	ClienteValido bool
	Dispositivos  []models.DispositivoGuardado
	Terminales    []models.TerminalCompleto

	Loading    bool
	Submitting bool

	// In-progress edits, keyed by device ref key. They shadow the
	// committed record until the debounced commit fires or the user
	// switches terminals.
	enCursoDiag map[string]*models.DiagnosticoData
	enCursoPres map[string]*models.PresupuestoData

	terminalActivo string
	original       *Baseline

	commitTimers map[string]*time.Timer
	onChange     func()
	closed       bool

	// avisoAutosave suppresses duplicate "auto-save active"
	// notifications within one session.
	avisoAutosave bool

	ultimaActividad time.Time
}

// NewSession creates an empty wizard session at step 1.
func NewSession(variant models.FormVariant) *Session {
	return &Session{
		ID:              uuid.NewString(),
		Variant:         variant,
		Creada:          timeutil.Now(),
		PasoActual:      PasoCliente,
		enCursoDiag:     make(map[string]*models.DiagnosticoData),
		enCursoPres:     make(map[string]*models.PresupuestoData),
		commitTimers:    make(map[string]*time.Timer),
		ultimaActividad: timeutil.Now(),
	}
}

// SetOnChange registers the callback fired after every mutation. The
// autosaver uses it to debounce draft writes.
func (s *Session) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Session) notifyChange() {
	s.ultimaActividad = timeutil.Now()
	if s.onChange != nil && !s.closed {
		go s.onChange()
	}
}

// LastActivity reports when the session was last mutated.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ultimaActividad
}

// Close cancels every pending commit timer. Late timer fires after
// Close are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, t := range s.commitTimers {
		t.Stop()
	}
	s.commitTimers = make(map[string]*time.Timer)
}

// SetCliente replaces the client record and recomputes its validity.
func (s *Session) SetCliente(c models.ClienteData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cliente = c
	s.ClienteValido = ClienteValido(c, s.Variant)
	s.notifyChange()
}

// AgregarDispositivo appends a device to the order. Locally created
// devices get a draft ref with a fresh temp id. A duplicate IMEI
// rejects the add and leaves the list untouched.
func (s *Session) AgregarDispositivo(d models.DispositivoGuardado) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !DispositivoValido(d) {
		return ErrDispositivoInvalido
	}
	if d.Ref.Kind == "" {
		d.Ref = models.DispositivoRef{Kind: models.DispositivoBorrador, TempID: uuid.NewString()}
	}
	if IMEIDuplicado(s.Dispositivos, d.IMEI, d.Ref) {
		return ErrIMEIDuplicado
	}
	if d.FechaCreacion.IsZero() {
		d.FechaCreacion = timeutil.Now()
	}
	d.Orden = len(s.Dispositivos) + 1
	s.Dispositivos = append(s.Dispositivos, d)
	s.Terminales = SyncTerminals(s.Dispositivos, s.Terminales)
	s.notifyChange()
	return nil
}

// ActualizarDispositivo replaces an existing device's payload, keeping
// its terminal intact.
func (s *Session) ActualizarDispositivo(d models.DispositivoGuardado) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if IMEIDuplicado(s.Dispositivos, d.IMEI, d.Ref) {
		return ErrIMEIDuplicado
	}
	for i := range s.Dispositivos {
		if s.Dispositivos[i].Ref.Equal(d.Ref) {
			d.Orden = s.Dispositivos[i].Orden
			if d.FechaCreacion.IsZero() {
				d.FechaCreacion = s.Dispositivos[i].FechaCreacion
			}
			s.Dispositivos[i] = d
			s.Terminales = SyncTerminals(s.Dispositivos, s.Terminales)
			s.notifyChange()
			return nil
		}
	}
	return ErrTerminalNoExiste
}

// EliminarDispositivo removes a device and, through synchronization,
// its dependent terminal.
func (s *Session) EliminarDispositivo(ref models.DispositivoRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.Dispositivos[:0]
	found := false
	for _, d := range s.Dispositivos {
		if d.Ref.Equal(ref) {
			found = true
			continue
		}
		out = append(out, d)
	}
	if !found {
		return ErrTerminalNoExiste
	}
	for i := range out {
		out[i].Orden = i + 1
	}
	s.Dispositivos = out
	delete(s.enCursoDiag, ref.Key())
	delete(s.enCursoPres, ref.Key())
	if t, ok := s.commitTimers[ref.Key()]; ok {
		t.Stop()
		delete(s.commitTimers, ref.Key())
	}
	if s.terminalActivo == ref.Key() {
		s.terminalActivo = ""
	}
	s.Terminales = SyncTerminals(s.Dispositivos, s.Terminales)
	s.notifyChange()
	return nil
}

func (s *Session) terminal(key string) *models.TerminalCompleto {
	for i := range s.Terminales {
		if s.Terminales[i].Dispositivo.Ref.Key() == key {
			return &s.Terminales[i]
		}
	}
	return nil
}

// SeleccionarTerminal makes a terminal the active one and returns the
// diagnosis and quote the editor should load: the saved record when the
// terminal is completed, else the in-progress draft, else blank.
// Switching away from a terminal first commits its pending edits.
func (s *Session) SeleccionarTerminal(ref models.DispositivoRef) (*models.DiagnosticoData, *models.PresupuestoData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ref.Key()
	t := s.terminal(key)
	if t == nil {
		return nil, nil, ErrTerminalNoExiste
	}
	if s.terminalActivo != "" && s.terminalActivo != key {
		s.commitLocked(s.terminalActivo)
	}
	s.terminalActivo = key

	var diag *models.DiagnosticoData
	var pres *models.PresupuestoData
	switch {
	case t.DiagnosticoCompletado && t.Diagnostico != nil:
		d := *t.Diagnostico
		diag = &d
	case s.enCursoDiag[key] != nil:
		d := *s.enCursoDiag[key]
		diag = &d
	default:
		diag = &models.DiagnosticoData{}
	}
	switch {
	case t.PresupuestoCompletado && t.Presupuesto != nil:
		p := *t.Presupuesto
		pres = &p
	case s.enCursoPres[key] != nil:
		p := *s.enCursoPres[key]
		pres = &p
	default:
		pres = &models.PresupuestoData{TipoDescuento: "cantidad", ValidezDias: 15}
	}
	return diag, pres, nil
}

// EditarDiagnostico records an in-progress diagnosis edit. The
// terminal's completion flag drops until the debounced commit re-runs.
func (s *Session) EditarDiagnostico(ref models.DispositivoRef, d models.DiagnosticoData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ref.Key()
	t := s.terminal(key)
	if t == nil {
		return ErrTerminalNoExiste
	}
	s.enCursoDiag[key] = &d
	t.DiagnosticoCompletado = false
	s.scheduleCommit(key)
	s.notifyChange()
	return nil
}

// EditarPresupuesto records an in-progress quote edit. The flattened
// item list is rebuilt from the grouped structure before storing, so
// the two can never diverge.
func (s *Session) EditarPresupuesto(ref models.DispositivoRef, p models.PresupuestoData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ref.Key()
	t := s.terminal(key)
	if t == nil {
		return ErrTerminalNoExiste
	}
	p.Reflatten()
	s.enCursoPres[key] = &p
	t.PresupuestoCompletado = false
	s.scheduleCommit(key)
	s.notifyChange()
	return nil
}

func (s *Session) scheduleCommit(key string) {
	if s.closed {
		return
	}
	if t, ok := s.commitTimers[key]; ok {
		t.Stop()
	}
	s.commitTimers[key] = time.AfterFunc(commitDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		delete(s.commitTimers, key)
		s.commitLocked(key)
		s.notifyChange()
	})
}

// CommitTerminal applies the pending edits of one terminal right away,
// without waiting for the debounce.
func (s *Session) CommitTerminal(ref models.DispositivoRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked(ref.Key())
}

// commitLocked moves in-progress edits into the terminal record. A
// diagnosis with at least one reported fault completes the terminal; an
// emptied one clears the completion flag so the terminal can not look
// finished while holding no faults. Same rule for quotes and items.
func (s *Session) commitLocked(key string) {
	t := s.terminal(key)
	if t == nil {
		return
	}
	if d, ok := s.enCursoDiag[key]; ok {
		t.Diagnostico = d
		t.DiagnosticoCompletado = len(d.ProblemasReportados) > 0
		t.FechaUltimaModificacion = timeutil.Now()
		delete(s.enCursoDiag, key)
	}
	if p, ok := s.enCursoPres[key]; ok {
		p.Reflatten()
		t.Presupuesto = p
		t.PresupuestoCompletado = len(p.Items) > 0
		t.FechaUltimaModificacion = timeutil.Now()
		delete(s.enCursoPres, key)
	}
}

// Totales derives the global totals from the current terminals.
func (s *Session) Totales() models.TotalesGlobales {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DeriveTotals(s.Terminales)
}

// holdsSignificantData reports whether the session carries anything
// worth auto-saving: a valid client, at least one device, or any
// terminal with a completed diagnosis or quote.
func (s *Session) holdsSignificantData() bool {
	if s.ClienteValido || len(s.Dispositivos) > 0 {
		return true
	}
	for _, t := range s.Terminales {
		if t.DiagnosticoCompletado || t.PresupuestoCompletado {
			return true
		}
	}
	return false
}

// HoldsSignificantData is the exported, locked variant.
func (s *Session) HoldsSignificantData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holdsSignificantData()
}

// Snapshot captures the session as a draft record.
func (s *Session) Snapshot() *models.DraftSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &models.DraftSnapshot{
		Timestamp:             timeutil.Now(),
		PasoActual:            s.PasoActual,
		ClienteData:           s.Cliente,
		ClienteValido:         s.ClienteValido,
		DispositivosAgregados: append([]models.DispositivoGuardado(nil), s.Dispositivos...),
		DispositivosValidos:   DispositivosValidos(s.Dispositivos),
		TerminalesCompletos:   cloneTerminales(s.Terminales),
		Version:               models.DraftVersion,
	}
}

// Restore replaces all wizard state with the draft's contents.
func (s *Session) Restore(snap *models.DraftSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PasoActual = snap.PasoActual
	s.Cliente = snap.ClienteData
	s.ClienteValido = snap.ClienteValido
	s.Dispositivos = append([]models.DispositivoGuardado(nil), snap.DispositivosAgregados...)
	s.Terminales = SyncTerminals(s.Dispositivos, snap.TerminalesCompletos)
	s.enCursoDiag = make(map[string]*models.DiagnosticoData)
	s.enCursoPres = make(map[string]*models.PresupuestoData)
	s.terminalActivo = ""
	s.notifyChange()
}

// MarcarAvisoAutosave returns true the first time it is called for the
// session; later calls return false so the "auto-save active"
// notification is shown only once.
func (s *Session) MarcarAvisoAutosave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.avisoAutosave {
		return false
	}
	s.avisoAutosave = true
	return true
}

// BuildSubmission re-validates every gate and assembles the atomic
// order payload. Pending edits are committed first so nothing typed in
// the last second is lost.
func (s *Session) BuildSubmission(notas string) (*models.CrearReparacionCompletaRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.Terminales {
		s.commitLocked(t.Dispositivo.Ref.Key())
	}
	if !s.ClienteValido {
		return nil, &StepError{Paso: PasoCliente, Motivo: "los datos del cliente no son validos"}
	}
	if !DispositivosValidos(s.Dispositivos) {
		return nil, &StepError{Paso: PasoDispositivos, Motivo: "hace falta al menos un dispositivo valido"}
	}
	for _, t := range s.Terminales {
		if !t.DiagnosticoCompletado {
			return nil, &StepError{Paso: PasoDiagnostico, Motivo: "todos los terminales necesitan un diagnostico completado"}
		}
		if !t.PresupuestoCompletado {
			return nil, &StepError{Paso: PasoPresupuesto, Motivo: "todos los terminales necesitan un presupuesto completado"}
		}
	}
	return &models.CrearReparacionCompletaRequest{
		Cliente:    s.Cliente,
		Terminales: cloneTerminales(s.Terminales),
		Totales:    DeriveTotals(s.Terminales),
		Notas:      notas,
	}, nil
}
