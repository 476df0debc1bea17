// Package models holds the GORM rows behind the channel, catalog and trade
// repositories. Domain types carry no ORM tags; rows convert with ToDomain and
// are built from domain values by the <Row>FromDomain constructors.
//
// Table layout follows migrations/000001_create_channel_sync_tables.up.sql.
// Unique indexes declared here must match the ones created there.
package models
