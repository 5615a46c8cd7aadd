package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/samber/lo"

	"estymator/internal/domain/entity"
)

const (
	keyPrefix    = "prediction"
	digestLength = 16
)

// Key контентно-адресуемый ключ кеша: prediction:{версия}:{дайджест
// запроса}. Версия моделей в ключе даёт дешёвую инвалидацию по префиксу при
// выкатке новых артефактов.
func Key(version string, req entity.ValuationRequest) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, version, digest(req))
}

// VersionPrefix префикс всех ключей данной версии моделей.
func VersionPrefix(version string) string {
	return fmt.Sprintf("%s:%s:", keyPrefix, version)
}

// digest детерминированный отпечаток запроса: JSON с отсортированными
// ключами, sha256, первые 16 hex-символов. Маршалинг map сортирует ключи,
// так что одинаковые запросы всегда дают одинаковый ключ.
func digest(req entity.ValuationRequest) string {
	fields := map[string]any{
		"city":          req.City,
		"district":      req.District,
		"area":          req.Area,
		"rooms":         req.Rooms,
		"floor":         req.Floor,
		"year_built":    req.YearBuilt,
		"condition":     req.Condition,
		"parking":       req.Parking,
		"finishing":     req.Finishing,
		"building_type": req.BuildingType,
		"elevator":      req.Elevator,
		"balcony":       req.Balcony,
		"transport":     req.Transport,
	}

	sum := sha256.Sum256(lo.Must(json.Marshal(fields)))

	return hex.EncodeToString(sum[:])[:digestLength]
}
