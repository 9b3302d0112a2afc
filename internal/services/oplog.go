package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"posventa/internal/models"
)

// opLogRetention caps the audit trail to the newest rows.
const opLogRetention = 1000

// OpLogService records audit entries without blocking the operation that
// produced them: Record enqueues onto a buffered channel and a single writer
// goroutine persists in the background. Entries are dropped silently when the
// queue is full, after Close, when no valid license is active, or when the
// logging_enabled configuration is off.
type OpLogService struct {
	DB      *gorm.DB
	queue   chan models.OperationLog
	done    chan struct{}
	once    sync.Once
	started bool

	mu     sync.RWMutex
	closed bool
}

func NewOpLogService(db *gorm.DB) *OpLogService {
	return &OpLogService{
		DB:    db,
		queue: make(chan models.OperationLog, 256),
		done:  make(chan struct{}),
	}
}

// Start launches the background writer. Safe to call once.
func (s *OpLogService) Start() {
	if s.started {
		return
	}
	s.started = true
	go s.run()
}

// Close stops accepting entries and drains what is already queued.
func (s *OpLogService) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.queue)
		if s.started {
			<-s.done
		}
	})
}

// Record enqueues an audit entry. Snapshot arguments are serialized to JSON;
// nil snapshots stay empty. Never blocks the caller.
func (s *OpLogService) Record(tipo, descripcion, usuario, entidad string, idEntidad uint, anteriores, nuevos any) {
	entry := models.OperationLog{
		TipoOperacion:   tipo,
		Descripcion:     descripcion,
		Usuario:         usuario,
		EntidadAfectada: entidad,
		IDEntidad:       idEntidad,
		DatosAnteriores: marshalSnapshot(anteriores),
		DatosNuevos:     marshalSnapshot(nuevos),
		CreatedAt:       time.Now(),
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		logrus.WithField("tipo", tipo).Debug("log de operaciones cerrado, entrada descartada")
		return
	}
	select {
	case s.queue <- entry:
	default:
		logrus.WithField("tipo", tipo).Debug("cola de log de operaciones llena, entrada descartada")
	}
}

func marshalSnapshot(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func (s *OpLogService) run() {
	defer close(s.done)
	for entry := range s.queue {
		if !s.shouldLog() {
			continue
		}
		if err := s.DB.Create(&entry).Error; err != nil {
			logrus.WithError(err).Error("error registrando operación")
			continue
		}
		s.prune()
	}
}

// shouldLog requires an unexpired active license and logging_enabled=true.
// The checks run at write time so toggling the config takes effect without
// restart.
func (s *OpLogService) shouldLog() bool {
	var count int64
	err := s.DB.Model(&models.License{}).
		Where("estado = ? AND fecha_expiracion > ?", "activa", time.Now()).
		Count(&count).Error
	if err != nil || count == 0 {
		return false
	}
	var cfg models.ConfigEntry
	if err := s.DB.Where("clave = ?", "logging_enabled").First(&cfg).Error; err != nil {
		return false
	}
	return cfg.Valor == "true"
}

func (s *OpLogService) prune() {
	err := s.DB.Exec(`
		DELETE FROM operaciones_log
		WHERE id NOT IN (
			SELECT id FROM operaciones_log
			ORDER BY created_at DESC
			LIMIT ?
		)`, opLogRetention).Error
	if err != nil {
		logrus.WithError(err).Warn("no se pudo rotar el log de operaciones")
	}
}

// Recent returns the newest entries up to limit (default 100, capped at the
// retention size).
func (s *OpLogService) Recent(limit int) ([]models.OperationLog, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > opLogRetention {
		limit = opLogRetention
	}
	var entries []models.OperationLog
	err := s.DB.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// Clear wipes the audit trail and returns the number of removed rows.
func (s *OpLogService) Clear() (int64, error) {
	res := s.DB.Exec("DELETE FROM operaciones_log")
	return res.RowsAffected, res.Error
}
