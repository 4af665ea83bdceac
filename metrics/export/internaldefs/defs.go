package internaldefs

import (
	"github.com/MrEthical07/mediauth"
)

// CounterDef names one engine counter for every exporter.
type CounterDef struct {
	ID   mediauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram.
type HistogramDef struct {
	ID   mediauth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: mediauth.MetricRegisterSuccess, Name: "mediauth_register_success_total", Help: "Accounts created."},
	{ID: mediauth.MetricRegisterDuplicate, Name: "mediauth_register_duplicate_total", Help: "Registrations rejected for a taken username or email."},
	{ID: mediauth.MetricRegisterFailure, Name: "mediauth_register_failure_total", Help: "Registrations rejected for any other reason."},
	{ID: mediauth.MetricLoginSuccess, Name: "mediauth_login_success_total", Help: "Successful logins."},
	{ID: mediauth.MetricLoginFailure, Name: "mediauth_login_failure_total", Help: "Failed logins."},
	{ID: mediauth.MetricLoginNotFound, Name: "mediauth_login_not_found_total", Help: "Logins for an unknown username or email."},
	{ID: mediauth.MetricRefreshSuccess, Name: "mediauth_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: mediauth.MetricRefreshFailure, Name: "mediauth_refresh_failure_total", Help: "Failed refresh rotations."},
	{ID: mediauth.MetricRefreshReuseDetected, Name: "mediauth_refresh_reuse_detected_total", Help: "Refresh tokens presented after rotation or logout."},
	{ID: mediauth.MetricLogout, Name: "mediauth_logout_total", Help: "Logouts."},
	{ID: mediauth.MetricValidateSuccess, Name: "mediauth_validate_success_total", Help: "Accepted access tokens."},
	{ID: mediauth.MetricValidateFailure, Name: "mediauth_validate_failure_total", Help: "Rejected access tokens."},
	{ID: mediauth.MetricPasswordChangeSuccess, Name: "mediauth_password_change_success_total", Help: "Successful password changes."},
	{ID: mediauth.MetricPasswordChangeInvalidOld, Name: "mediauth_password_change_invalid_old_total", Help: "Password changes with a wrong old password."},
	{ID: mediauth.MetricPasswordHashUpgraded, Name: "mediauth_password_hash_upgraded_total", Help: "Password hashes rehashed on login."},
	{ID: mediauth.MetricPasswordResetRequest, Name: "mediauth_password_reset_request_total", Help: "Reset mails sent."},
	{ID: mediauth.MetricPasswordResetMailFailure, Name: "mediauth_password_reset_mail_failure_total", Help: "Reset mails that could not be delivered."},
	{ID: mediauth.MetricPasswordResetConfirmSuccess, Name: "mediauth_password_reset_confirm_success_total", Help: "Completed password resets."},
	{ID: mediauth.MetricPasswordResetConfirmFailure, Name: "mediauth_password_reset_confirm_failure_total", Help: "Rejected password reset completions."},
	{ID: mediauth.MetricStoreFailure, Name: "mediauth_store_failure_total", Help: "Credential store errors."},
}

var HistogramDefs = []HistogramDef{
	{ID: mediauth.MetricLoginLatency, Name: "mediauth_login_latency_seconds", Help: "Login latency."},
	{ID: mediauth.MetricRefreshLatency, Name: "mediauth_refresh_latency_seconds", Help: "Refresh latency."},
	{ID: mediauth.MetricValidateLatency, Name: "mediauth_validate_latency_seconds", Help: "Access token validation latency."},
}

// AuditDroppedName is the counter for events lost to dispatcher backpressure.
const (
	AuditDroppedName = "mediauth_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."
)

// HistogramBounds are the finite upper bounds, in seconds, of the engine's
// latency buckets. The eighth bucket is +Inf.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, including +Inf, for exporters
// without native histograms.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero filling
// missing entries and dropping extras.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
