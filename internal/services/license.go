package services

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"posventa/internal/models"
)

var (
	ErrInvalidKey    = errors.New("Clave de licencia inválida")
	ErrKeyNotInPool  = errors.New("Clave de licencia inválida o ya utilizada")
	ErrKeyUsed       = errors.New("Esta clave de activación ya fue utilizada")
	ErrAlreadyActive = errors.New("Ya existe una licencia activa")
	ErrNoActive      = errors.New("No hay licencia activa para desactivar")
)

var licenseKeyPattern = regexp.MustCompile(`^\d{6}$`)

// LicenseDetails is the status payload served to the frontend.
type LicenseDetails struct {
	Activated      bool   `json:"activated"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	DaysRemaining  int    `json:"days_remaining,omitempty"`
	Expired        bool   `json:"expired,omitempty"`
}

// codePool is the on-disk shape of the activation code file: a base64-encoded
// JSON document. Used codes are removed on activation so each code works once
// even across database resets.
type codePool struct {
	ActivationCodes []string `json:"activation_codes"`
}

type LicenseService struct {
	DB       *gorm.DB
	PoolFile string
	OpLog    *OpLogService
}

func NewLicenseService(db *gorm.DB, poolFile string, oplog *OpLogService) *LicenseService {
	return &LicenseService{DB: db, PoolFile: poolFile, OpLog: oplog}
}

// IsLicensed reports whether an active, unexpired license exists. Expiry is
// evaluated at read time; expired rows keep estado=activa and simply stop
// counting.
func (s *LicenseService) IsLicensed() bool {
	var count int64
	err := s.DB.Model(&models.License{}).
		Where("estado = ? AND fecha_expiracion > ?", "activa", time.Now()).
		Count(&count).Error
	if err != nil {
		logrus.WithError(err).Error("error verificando licencia")
		return false
	}
	return count > 0
}

// Details returns the newest active license annotated with days remaining.
func (s *LicenseService) Details() LicenseDetails {
	var lic models.License
	err := s.DB.Where("estado = ?", "activa").
		Order("fecha_activacion DESC").
		First(&lic).Error
	if err != nil {
		return LicenseDetails{Activated: false}
	}
	if lic.FechaExpiracion == nil {
		return LicenseDetails{Activated: true}
	}
	days := int(math.Ceil(time.Until(*lic.FechaExpiracion).Hours() / 24))
	d := LicenseDetails{
		Activated:      true,
		ExpirationDate: lic.FechaExpiracion.Format(time.RFC3339),
		DaysRemaining:  days,
		Expired:        days <= 0,
	}
	if d.DaysRemaining < 0 {
		d.DaysRemaining = 0
	}
	return d
}

// Activate validates the key against the code pool, consumes it, and creates
// the single active license with a one month expiry.
func (s *LicenseService) Activate(key string, clientData any) (*models.License, error) {
	if !licenseKeyPattern.MatchString(key) {
		return nil, ErrInvalidKey
	}
	codes, err := s.loadCodes()
	if err != nil {
		logrus.WithError(err).Error("error cargando códigos de activación")
		return nil, ErrKeyNotInPool
	}
	idx := -1
	for i, c := range codes {
		if c == key {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrKeyNotInPool
	}

	var used int64
	if err := s.DB.Model(&models.License{}).Where("clave_licencia = ?", key).Count(&used).Error; err != nil {
		return nil, err
	}
	if used > 0 {
		return nil, ErrKeyUsed
	}
	var active int64
	if err := s.DB.Model(&models.License{}).Where("estado = ?", "activa").Count(&active).Error; err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, ErrAlreadyActive
	}

	expiration := time.Now().AddDate(0, 1, 0)
	lic := models.License{
		ClaveLicencia:   key,
		Estado:          "activa",
		FechaExpiracion: &expiration,
		DatosCliente:    marshalSnapshot(clientData),
	}
	if err := s.DB.Create(&lic).Error; err != nil {
		return nil, err
	}

	codes = append(codes[:idx], codes[idx+1:]...)
	if err := s.saveCodes(codes); err != nil {
		logrus.WithError(err).Error("error guardando códigos de activación")
	}

	if s.OpLog != nil {
		s.OpLog.Record("LICENCIA_ACTIVADA",
			fmt.Sprintf("Licencia activada: %s - Expira: %s", key, expiration.Format(time.RFC3339)),
			"Sistema", "licencia", lic.ID, nil,
			map[string]any{"clave_licencia": key, "fecha_expiracion": expiration.Format(time.RFC3339)})
	}
	return &lic, nil
}

// Deactivate flips every active license to desactivada. Used codes stay
// consumed, so deactivation is permanent for a given key.
func (s *LicenseService) Deactivate() (int64, error) {
	var active []models.License
	if err := s.DB.Where("estado = ?", "activa").Find(&active).Error; err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return 0, ErrNoActive
	}
	res := s.DB.Model(&models.License{}).Where("estado = ?", "activa").Update("estado", "desactivada")
	if res.Error != nil {
		return 0, res.Error
	}
	if s.OpLog != nil {
		s.OpLog.Record("LICENCIA_DESACTIVADA", "Licencia desactivada manualmente",
			"Sistema", "licencia", active[0].ID, nil,
			map[string]any{"licencias_desactivadas": len(active)})
	}
	return res.RowsAffected, nil
}

// LogExpired scans for expired-but-still-active licenses at startup. The scan
// only informs: expired rows are left for the frontend to surface.
func (s *LicenseService) LogExpired() {
	var count int64
	err := s.DB.Model(&models.License{}).
		Where("estado = ? AND fecha_expiracion <= ?", "activa", time.Now()).
		Count(&count).Error
	if err != nil {
		logrus.WithError(err).Error("error verificando licencias expiradas")
		return
	}
	if count > 0 {
		logrus.Warnf("se encontraron %d licencias expiradas", count)
	}
}

func (s *LicenseService) loadCodes() ([]string, error) {
	encoded, err := os.ReadFile(s.PoolFile)
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return nil, err
	}
	var pool codePool
	if err := json.Unmarshal(decoded, &pool); err != nil {
		return nil, err
	}
	return pool.ActivationCodes, nil
}

func (s *LicenseService) saveCodes(codes []string) error {
	raw, err := json.MarshalIndent(codePool{ActivationCodes: codes}, "", "  ")
	if err != nil {
		return err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	return os.WriteFile(s.PoolFile, []byte(encoded), 0o644)
}
