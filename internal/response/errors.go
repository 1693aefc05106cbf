package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidAction  ErrCode = "INVALID_ACTION"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"
	ErrResultNotFound  ErrCode = "RESULT_NOT_FOUND"
	ErrSessionActive   ErrCode = "SESSION_ALREADY_ACTIVE"

	// ─── Exam session ──────────────────────────────────────────────────
	ErrInsufficientQuestions ErrCode = "INSUFFICIENT_QUESTIONS"
	ErrIllegalState          ErrCode = "ILLEGAL_STATE"
	ErrNoSuchQuestion        ErrCode = "NO_SUCH_QUESTION"
	ErrReviewNotAllowed      ErrCode = "REVIEW_NOT_ALLOWED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."
	case ErrInvalidAction:
		return "Aksi tidak dikenal atau parameternya tidak lengkap."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrSessionNotFound:
		return "Sesi ujian tidak ditemukan atau sudah berakhir."
	case ErrResultNotFound:
		return "Hasil ujian belum tersedia."
	case ErrSessionActive:
		return "Siswa masih memiliki sesi ujian yang aktif."

	// ─── Exam session ──────────────────────────────────────────────────
	case ErrInsufficientQuestions:
		return "Jumlah soal yang tersedia tidak mencukupi."
	case ErrIllegalState:
		return "Tindakan ini tidak diperbolehkan pada status sesi saat ini."
	case ErrNoSuchQuestion:
		return "Nomor soal di luar jangkauan."
	case ErrReviewNotAllowed:
		return "Soal yang sudah dijawab tidak dapat diubah lagi."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
