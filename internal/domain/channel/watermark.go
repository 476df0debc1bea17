package channel

import "time"

// WatermarkKind names one of the per-channel sync checkpoints
type WatermarkKind string

const (
	WatermarkOrderImport        WatermarkKind = "order_import"
	WatermarkOrderExport        WatermarkKind = "order_export"
	WatermarkProductExport      WatermarkKind = "product_export"
	WatermarkShipmentExport     WatermarkKind = "shipment_export"
	WatermarkProductPriceExport WatermarkKind = "product_price_export"
)

// AllWatermarkKinds returns the five checkpoint kinds
func AllWatermarkKinds() []WatermarkKind {
	return []WatermarkKind{
		WatermarkOrderImport,
		WatermarkOrderExport,
		WatermarkProductExport,
		WatermarkShipmentExport,
		WatermarkProductPriceExport,
	}
}

// IsValid returns true if the kind is known
func (k WatermarkKind) IsValid() bool {
	switch k {
	case WatermarkOrderImport, WatermarkOrderExport, WatermarkProductExport,
		WatermarkShipmentExport, WatermarkProductPriceExport:
		return true
	}
	return false
}

// Column returns the persisted column holding this watermark
func (k WatermarkKind) Column() string {
	switch k {
	case WatermarkOrderImport:
		return "last_order_import_time"
	case WatermarkOrderExport:
		return "last_order_export_time"
	case WatermarkProductExport:
		return "last_product_export_time"
	case WatermarkShipmentExport:
		return "last_shipment_export_time"
	case WatermarkProductPriceExport:
		return "last_product_price_export_time"
	default:
		return ""
	}
}

// Watermarks holds the five nullable checkpoints of a channel.
// A nil watermark means the next run processes everything.
type Watermarks struct {
	LastOrderImportTime        *time.Time
	LastOrderExportTime        *time.Time
	LastProductExportTime      *time.Time
	LastShipmentExportTime     *time.Time
	LastProductPriceExportTime *time.Time
}

func (w *Watermarks) slot(kind WatermarkKind) (**time.Time, error) {
	switch kind {
	case WatermarkOrderImport:
		return &w.LastOrderImportTime, nil
	case WatermarkOrderExport:
		return &w.LastOrderExportTime, nil
	case WatermarkProductExport:
		return &w.LastProductExportTime, nil
	case WatermarkShipmentExport:
		return &w.LastShipmentExportTime, nil
	case WatermarkProductPriceExport:
		return &w.LastProductPriceExportTime, nil
	default:
		return nil, ErrUnknownWatermark
	}
}

// Get returns the watermark of the given kind, nil when unset or unknown
func (w *Watermarks) Get(kind WatermarkKind) *time.Time {
	slot, err := w.slot(kind)
	if err != nil || *slot == nil {
		return nil
	}
	t := **slot
	return &t
}

// Set stores t as the watermark of the given kind
func (w *Watermarks) Set(kind WatermarkKind, t time.Time) error {
	slot, err := w.slot(kind)
	if err != nil {
		return err
	}
	t = t.UTC()
	*slot = &t
	return nil
}
