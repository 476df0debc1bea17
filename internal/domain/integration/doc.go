// Package integration contains the Integration bounded context.
// This context manages the synchronization between the ERP and remote storefronts.
//
// Key concepts:
//   - StoreGateway / StoreSession: Port for a remote storefront API (Magento XML-RPC)
//   - ChannelProvider: Capability interface implemented once per channel source
//   - RemoteFault: Named fault kinds raised by the remote store
//   - SyncResult: Outcome of a single sync operation
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
