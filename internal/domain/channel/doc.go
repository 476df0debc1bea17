// Package channel contains the Sale Channel bounded context.
//
// A Channel binds the local ERP to one remote storefront. Its Source decides which
// provider handles sync operations for it; Magento channels additionally carry
// the store credentials, store scoping, order prefix, tier and tax settings, and
// the five watermarks that checkpoint incremental synchronization.
//
// Key concepts:
//   - Channel: aggregate root holding settings and watermarks
//   - WatermarkKind: names one of the five per-channel sync checkpoints
//   - OrderState: remote order state and the local action taken on import
//   - Carrier: remote shipping method mapped to a local carrier
package channel
