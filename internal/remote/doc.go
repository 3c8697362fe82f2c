// Package remote reads and writes the per-user record shared across devices.
//
// The record lives at users/<identifier>/stamps in a Firebase Realtime
// Database style tree. The reconciliation core only reads it, through
// Adapter, which never fails: any problem degrades to an empty record.
//
// Writes (stamp visits, survey answers) are multi-path updates issued by the
// visit and survey flows through Writer. They are best effort.
package remote
