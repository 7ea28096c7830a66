package models

// PersistentConfig is a single key/value record. The inbound update cursor is
// stored under ConfigCode "TG_LAST_UPDATE_PROCESSED".
type PersistentConfig struct {
	ConfigCode string `json:"config_code"`
	Value      string `json:"value"`
}
