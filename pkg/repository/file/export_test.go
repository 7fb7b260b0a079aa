package file

import "github.com/secmon-lab/hippo/pkg/domain/model"

const LockStripes = lockStripes

// LockStripeForTest returns the stripe index guarding a session
func LockStripeForTest(sessionID model.SessionID) int {
	return lockStripe(sessionID)
}

// SameLockForTest reports whether two sessions share a mutex
func (f *File) SameLockForTest(a, b model.SessionID) bool {
	return f.lock(a) == f.lock(b)
}
