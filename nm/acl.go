// Access control: owner short-circuit, linear ACL scan (lists stay small),
// and the request/approve/deny workflow for non-owners.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nm

import (
	"time"

	"github.com/wordstore/wordstore/cmn"
)

// CheckAccess returns the effective right user has on m: WRITE if owner,
// else whatever the ACL grants, else NONE.
func CheckAccess(m *FileMeta, user string) AccessRight {
	m.mu.Lock()
	defer m.mu.Unlock()
	return checkAccessLocked(m, user)
}

func checkAccessLocked(m *FileMeta, user string) AccessRight {
	if m.Owner == user {
		return AccessWrite
	}
	for _, e := range m.ACL {
		if e.User == user {
			return e.Right
		}
	}
	return AccessNone
}

func IsOwner(m *FileMeta, user string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Owner == user
}

// AddAccess grants or updates right for user. Caller must be the owner;
// an existing entry is updated in place rather than duplicated.
func AddAccess(m *FileMeta, caller, user string, right AccessRight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Owner != caller {
		return cmn.NewCodeError(cmn.ErrPermissionDenied, "only the owner may grant access")
	}
	for i := range m.ACL {
		if m.ACL[i].User == user {
			m.ACL[i].Right = right
			return nil
		}
	}
	m.ACL = append(m.ACL, AccessEntry{User: user, Right: right})
	return nil
}

// RemoveAccess revokes user's entry. Caller must be the owner.
func RemoveAccess(m *FileMeta, caller, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Owner != caller {
		return cmn.NewCodeError(cmn.ErrPermissionDenied, "only the owner may revoke access")
	}
	for i := range m.ACL {
		if m.ACL[i].User == user {
			m.ACL = append(m.ACL[:i], m.ACL[i+1:]...)
			return nil
		}
	}
	return nil
}

// RequestAccess upserts a pending request by username. Fails if the caller
// is the owner or already holds at-least-right access.
func RequestAccess(m *FileMeta, user string, right AccessRight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Owner == user {
		return cmn.NewCodeError(cmn.ErrInvalidOperation, "owner already has full access")
	}
	if checkAccessLocked(m, user) >= right {
		return cmn.NewCodeError(cmn.ErrInvalidOperation, "already has sufficient access")
	}
	for i := range m.Pending {
		if m.Pending[i].User == user {
			m.Pending[i].Right = right
			m.Pending[i].RequestedAt = time.Now()
			return nil
		}
	}
	m.Pending = append(m.Pending, PendingRequest{User: user, Right: right, RequestedAt: time.Now()})
	return nil
}

// ProcessRequest approves or denies a pending request. On approve, the
// right is granted before the pending entry is removed; if the grant
// fails (only possible if caller isn't owner), the request is preserved.
func ProcessRequest(m *FileMeta, owner, target string, approve bool) error {
	m.mu.Lock()
	idx := -1
	for i := range m.Pending {
		if m.Pending[i].User == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return cmn.NewCodeError(cmn.ErrInvalidOperation, "no pending request from %q", target)
	}
	right := m.Pending[idx].Right
	m.mu.Unlock()

	if !approve {
		m.mu.Lock()
		removePending(m, target)
		m.mu.Unlock()
		return nil
	}
	if err := AddAccess(m, owner, target, right); err != nil {
		return err
	}
	m.mu.Lock()
	removePending(m, target)
	m.mu.Unlock()
	return nil
}

// ListPending returns a snapshot of m's outstanding access requests.
func ListPending(m *FileMeta) []PendingRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PendingRequest(nil), m.Pending...)
}

func removePending(m *FileMeta, user string) {
	for i := range m.Pending {
		if m.Pending[i].User == user {
			m.Pending = append(m.Pending[:i], m.Pending[i+1:]...)
			return
		}
	}
}
