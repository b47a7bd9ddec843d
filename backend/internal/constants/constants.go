package constants

// Discord constants
const (
	// DiscordMaxMessageLength is the maximum character limit for Discord messages
	DiscordMaxMessageLength = 2000

	// ThreadAutoArchiveMinutes is how long an idle attribution thread stays visible
	ThreadAutoArchiveMinutes = 10080
)

// Storage constants
const (
	// MaxStorageAttempts is how often the command layer tries a StorageUnavailable call
	MaxStorageAttempts = 3
)

// User-facing replies
const (
	MsgUserNotFound       = "User not found."
	MsgQuoteNotFound      = "Quote not found."
	MsgStorageUnavailable = "The database is currently unavailable, please try again later."
	MsgNotYetSaid         = "Not yet, nobody has said this quote."
	MsgUnexpectedError    = "Something went wrong, check the logs."
)
