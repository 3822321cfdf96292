package shared

import (
	"context"
	"log/slog"
	"net/http"

	"schoolpay/internal/domain/audit"
	"schoolpay/internal/domain/auth"
	"schoolpay/internal/platform/requestctx"
)

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// RecordAudit writes an audit entry for the current request. The change has
// already happened, so a failed write is logged and not reported to the caller.
func RecordAudit(r *http.Request, recorder AuditRecorder, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if recorder == nil {
		return
	}
	entry := audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestctx.GetRequestID(r.Context()),
		IP:         requestctx.GetClientIP(r.Context()),
		Before:     before,
		After:      after,
	}
	if err := recorder.Record(r.Context(), entry); err != nil {
		slog.Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}
