package netio

// Net result codes shared with the legacy client.
const (
	NetSuccess               int32 = 0
	NetInternalError         int32 = 1
	NetTimeout               int32 = 2
	NetBadServerData         int32 = 3
	NetAgeNotFound           int32 = 4
	NetConnectFailed         int32 = 5
	NetDisconnected          int32 = 6
	NetFileNotFound          int32 = 7
	NetOldBuildID            int32 = 8
	NetRemoteShutdown        int32 = 9
	NetTimeoutOdbc           int32 = 10
	NetAccountAlreadyExists  int32 = 11
	NetPlayerAlreadyExists   int32 = 12
	NetAccountNotFound       int32 = 13
	NetPlayerNotFound        int32 = 14
	NetInvalidParameter      int32 = 15
	NetNameLookupFailed      int32 = 16
	NetLoggedInElsewhere     int32 = 17
	NetVaultNodeNotFound     int32 = 18
	NetMaxPlayersOnAcct      int32 = 19
	NetAuthenticationFailed  int32 = 20
	NetStateObjectNotFound   int32 = 21
	NetLoginDenied           int32 = 22
	NetCircularReference     int32 = 23
	NetAccountNotActivated   int32 = 24
	NetKeyAlreadyUsed        int32 = 25
	NetKeyNotFound           int32 = 26
	NetActivationCodeNotFound int32 = 27
	NetPlayerNameInvalid     int32 = 28
	NetNotSupported          int32 = 29
	NetServiceForbidden      int32 = 30
	NetAuthTokenTooOld       int32 = 31
	NetMustUseGameTapClient  int32 = 32
	NetTooManyFailedLogins   int32 = 33
	NetGameTapConnectionFailed int32 = 34
)
