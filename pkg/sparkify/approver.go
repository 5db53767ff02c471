package sparkify

import "context"

// Approver confirms destructive operations such as dropping the schema.
//
// Implementations:
//   - ForcedApprover: Shows countdown and automatically approves
//   - InteractiveApprover: Prompts user to type database name for confirmation
type Approver interface {
	// RequestApproval returns true when the operation on dbName may proceed.
	RequestApproval(ctx context.Context, dbName string) (bool, error)
}
