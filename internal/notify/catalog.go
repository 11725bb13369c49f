package notify

import "fmt"

// Key identifies a catalog message
type Key string

// Locale selects a catalog language
type Locale string

const (
	LocaleVI Locale = "vi"
	LocaleEN Locale = "en"
)

const (
	HTTPBadRequest     Key = "http.bad_request"
	HTTPSessionExpired Key = "http.session_expired"
	HTTPForbidden      Key = "http.forbidden"
	HTTPNotFound       Key = "http.not_found"
	HTTPRateLimited    Key = "http.rate_limited"
	HTTPServerError    Key = "http.server_error"
	HTTPUnknown        Key = "http.unknown"
	HTTPNetwork        Key = "http.network"
	HTTPUnexpected     Key = "http.unexpected"
	HTTPDownloadFailed Key = "http.download_failed"
	ServiceUnavailable Key = "service.unavailable"

	WalletConnected       Key = "wallet.connected"
	WalletConnectRejected Key = "wallet.connect_rejected"
	WalletRequestPending  Key = "wallet.request_pending"
	WalletConnectFailed   Key = "wallet.connect_failed"
	WalletDisconnected    Key = "wallet.disconnected"
	WalletAddNetworkFail  Key = "wallet.add_network_failed"
	WalletSwitchFail      Key = "wallet.switch_network_failed"
	LoginSuccess          Key = "login.success"
	LoginSignRequired     Key = "login.sign_required"
	LoginFailed           Key = "login.failed"

	TxCancelled         Key = "tx.cancelled"
	TxInsufficientFunds Key = "tx.insufficient_funds"
	TxFailedReason      Key = "tx.failed_reason"
	TxCheckBalance      Key = "tx.check_balance"
	TxFailed            Key = "tx.failed"

	NFTNotForSale        Key = "nft.not_for_sale"
	NFTMinted            Key = "nft.minted"
	NFTPurchased         Key = "nft.purchased"
	NFTListed            Key = "nft.listed"
	NFTListingCancelled  Key = "nft.listing_cancelled"
	NFTLoadListingsFail  Key = "nft.load_listings_failed"
	NFTLoadUserNFTsFail  Key = "nft.load_user_nfts_failed"
	NFTWalletRequired    Key = "nft.wallet_required"
	NFTProcessingPayment Key = "nft.processing_purchase"

	FinanceLoadFailed      Key = "finance.load_failed"
	FinanceDeleted         Key = "finance.deleted"
	FinanceDeleteImmutable Key = "finance.delete_immutable"
	FinanceDeleteFailed    Key = "finance.delete_failed"

	StudyLoadConversationsFailed Key = "study.load_conversations_failed"
	StudyLoadMessagesFailed      Key = "study.load_messages_failed"
	StudySendFailed              Key = "study.send_failed"
	StudyCreated                 Key = "study.created"
	StudyCreateFailed            Key = "study.create_failed"
	StudyDeleted                 Key = "study.deleted"
	StudyDeleteFailed            Key = "study.delete_failed"
	StudyDeleteDemo              Key = "study.delete_demo"
	StudyDeleteLast              Key = "study.delete_last"
	StudyInvalidID               Key = "study.invalid_id"

	AnalysisEmptyAddress   Key = "analysis.empty_address"
	AnalysisInvalidAddress Key = "analysis.invalid_address"
	AnalysisRunning        Key = "analysis.running"
	AnalysisHighRisk       Key = "analysis.high_risk"
	AnalysisMediumRisk     Key = "analysis.medium_risk"
	AnalysisLowRisk        Key = "analysis.low_risk"
	AnalysisDeleted        Key = "analysis.deleted"
	AnalysisDeleteFailed   Key = "analysis.delete_failed"
	AnalysisInvalidID      Key = "analysis.invalid_id"
	AnalysisSearchFailed   Key = "analysis.search_failed"
	AnalysisHistoryFailed  Key = "analysis.history_failed"
	AnalysisFromHistory    Key = "analysis.from_history"
	AIServerHealthy        Key = "ai.healthy"
	AIServerUnavailable    Key = "ai.unavailable"
	AIServerCheckFailed    Key = "ai.check_failed"
)

var messages = map[Locale]map[Key]string{
	LocaleVI: {
		HTTPBadRequest:     "Yêu cầu không hợp lệ",
		HTTPSessionExpired: "Phiên đăng nhập đã hết hạn. Vui lòng đăng nhập lại.",
		HTTPForbidden:      "Bạn không có quyền truy cập vào tài nguyên này",
		HTTPNotFound:       "Không tìm thấy tài nguyên yêu cầu",
		HTTPRateLimited:    "Quá nhiều yêu cầu. Vui lòng thử lại sau.",
		HTTPServerError:    "Lỗi máy chủ. Vui lòng thử lại sau.",
		HTTPUnknown:        "Đã xảy ra lỗi không xác định",
		HTTPNetwork:        "Lỗi kết nối mạng. Vui lòng kiểm tra kết nối của bạn.",
		HTTPUnexpected:     "Đã xảy ra lỗi không mong muốn",
		HTTPDownloadFailed: "Không thể tải xuống tệp",
		ServiceUnavailable: "Dịch vụ %s tạm thời không khả dụng",

		WalletConnected:       "Ví đã kết nối thành công!",
		WalletConnectRejected: "Vui lòng kết nối với ví",
		WalletRequestPending:  "Yêu cầu kết nối đang chờ xử lý",
		WalletConnectFailed:   "Kết nối ví thất bại",
		WalletDisconnected:    "Đã ngắt kết nối ví",
		WalletAddNetworkFail:  "Không thể thêm mạng Sepolia",
		WalletSwitchFail:      "Không thể chuyển sang mạng Sepolia",
		LoginSuccess:          "Đăng nhập thành công!",
		LoginSignRequired:     "Vui lòng ký tin nhắn để đăng nhập",
		LoginFailed:           "Đăng nhập thất bại",

		TxCancelled:         "Giao dịch đã bị người dùng hủy",
		TxInsufficientFunds: "Không đủ số dư (cần %s ETH + phí gas)",
		TxFailedReason:      "Giao dịch thất bại: %s",
		TxCheckBalance:      "Giao dịch thất bại. Vui lòng kiểm tra số dư ví và thử lại (cần %s ETH + phí gas).",
		TxFailed:            "Giao dịch thất bại",

		NFTNotForSale:        "NFT này không được rao bán",
		NFTMinted:            "Đã tạo NFT #%s",
		NFTPurchased:         "Mua NFT #%s thành công",
		NFTListed:            "Đã đăng bán NFT #%s",
		NFTListingCancelled:  "Đã hủy đăng bán NFT #%s",
		NFTLoadListingsFail:  "Không thể tải danh sách rao bán",
		NFTLoadUserNFTsFail:  "Không thể tải NFT của bạn",
		NFTWalletRequired:    "Vui lòng kết nối ví",
		NFTProcessingPayment: "Đang xử lý giao dịch mua...",

		FinanceLoadFailed:      "Không thể tải dữ liệu tài chính",
		FinanceDeleted:         "Đã xóa giao dịch",
		FinanceDeleteImmutable: "Giao dịch blockchain không thể xóa",
		FinanceDeleteFailed:    "Không thể xóa giao dịch",

		StudyLoadConversationsFailed: "Lỗi khi tải danh sách cuộc trò chuyện",
		StudyLoadMessagesFailed:      "Không thể tải tin nhắn",
		StudySendFailed:              "Không thể gửi tin nhắn. Vui lòng thử lại.",
		StudyCreated:                 "Đã tạo cuộc trò chuyện mới",
		StudyCreateFailed:            "Không thể tạo cuộc trò chuyện mới",
		StudyDeleted:                 "Đã xóa cuộc trò chuyện",
		StudyDeleteFailed:            "Không thể xóa cuộc trò chuyện",
		StudyDeleteDemo:              "Không thể xóa cuộc trò chuyện demo",
		StudyDeleteLast:              "Không thể xóa cuộc trò chuyện cuối cùng",
		StudyInvalidID:               "ID cuộc trò chuyện không hợp lệ",

		AnalysisEmptyAddress:   "Vui lòng nhập địa chỉ ví",
		AnalysisInvalidAddress: "Địa chỉ ví không hợp lệ. Vui lòng kiểm tra lại.",
		AnalysisRunning:        "Đang phân tích blockchain...",
		AnalysisHighRisk:       "Phát hiện rủi ro cao! Hãy cẩn thận.",
		AnalysisMediumRisk:     "Phát hiện rủi ro trung bình. Kiểm tra kỹ thông tin phân tích",
		AnalysisLowRisk:        "Ví an toàn, rủi ro thấp.",
		AnalysisDeleted:        "Đã xóa phân tích",
		AnalysisDeleteFailed:   "Không thể xóa phân tích. Vui lòng thử lại.",
		AnalysisInvalidID:      "ID phân tích không hợp lệ",
		AnalysisSearchFailed:   "Không thể tìm kiếm lịch sử",
		AnalysisHistoryFailed:  "Không thể tải lịch sử phân tích",
		AnalysisFromHistory:    "Đã tải phân tích từ lịch sử",
		AIServerHealthy:        "AI Server đang hoạt động bình thường",
		AIServerUnavailable:    "AI Server không khả dụng",
		AIServerCheckFailed:    "Không thể kiểm tra trạng thái AI Server",
	},
	LocaleEN: {
		HTTPBadRequest:     "Bad request",
		HTTPSessionExpired: "Your session has expired. Please sign in again.",
		HTTPForbidden:      "You do not have access to this resource",
		HTTPNotFound:       "The requested resource was not found",
		HTTPRateLimited:    "Too many requests. Please try again later.",
		HTTPServerError:    "Server error. Please try again later.",
		HTTPUnknown:        "An unknown error occurred",
		HTTPNetwork:        "Network error. Please check your connection.",
		HTTPUnexpected:     "An unexpected error occurred",
		HTTPDownloadFailed: "Could not download the file",
		ServiceUnavailable: "%s is temporarily unavailable",

		WalletConnected:       "Wallet connected!",
		WalletConnectRejected: "Please connect your wallet",
		WalletRequestPending:  "A connection request is already pending",
		WalletConnectFailed:   "Failed to connect wallet",
		WalletDisconnected:    "Wallet disconnected",
		WalletAddNetworkFail:  "Failed to add Sepolia network",
		WalletSwitchFail:      "Failed to switch to Sepolia network",
		LoginSuccess:          "Signed in!",
		LoginSignRequired:     "Please sign the message to sign in",
		LoginFailed:           "Sign in failed",

		TxCancelled:         "Transaction cancelled by user",
		TxInsufficientFunds: "Insufficient funds (need %s ETH + gas fees)",
		TxFailedReason:      "Transaction failed: %s",
		TxCheckBalance:      "Transaction failed. Please check your wallet balance and try again (need %s ETH + gas fees).",
		TxFailed:            "Transaction failed",

		NFTNotForSale:        "NFT is not for sale",
		NFTMinted:            "Minted NFT #%s",
		NFTPurchased:         "Purchased NFT #%s",
		NFTListed:            "Listed NFT #%s for sale",
		NFTListingCancelled:  "Cancelled listing for NFT #%s",
		NFTLoadListingsFail:  "Failed to load listings",
		NFTLoadUserNFTsFail:  "Failed to load your NFTs",
		NFTWalletRequired:    "Please connect your wallet",
		NFTProcessingPayment: "Processing purchase...",

		FinanceLoadFailed:      "Could not load finance data",
		FinanceDeleted:         "Transaction deleted",
		FinanceDeleteImmutable: "Blockchain transactions cannot be deleted",
		FinanceDeleteFailed:    "Could not delete transaction",

		StudyLoadConversationsFailed: "Failed to load conversations",
		StudyLoadMessagesFailed:      "Failed to load messages",
		StudySendFailed:              "Could not send message. Please try again.",
		StudyCreated:                 "New conversation created",
		StudyCreateFailed:            "Could not create a new conversation",
		StudyDeleted:                 "Conversation deleted",
		StudyDeleteFailed:            "Could not delete conversation",
		StudyDeleteDemo:              "The demo conversation cannot be deleted",
		StudyDeleteLast:              "The last conversation cannot be deleted",
		StudyInvalidID:               "Invalid conversation id",

		AnalysisEmptyAddress:   "Please enter a wallet address",
		AnalysisInvalidAddress: "Invalid wallet address. Please check it again.",
		AnalysisRunning:        "Analyzing on-chain activity...",
		AnalysisHighRisk:       "High risk detected! Be careful.",
		AnalysisMediumRisk:     "Medium risk detected. Review the analysis carefully",
		AnalysisLowRisk:        "Wallet looks safe, low risk.",
		AnalysisDeleted:        "Analysis deleted",
		AnalysisDeleteFailed:   "Could not delete analysis. Please try again.",
		AnalysisInvalidID:      "Invalid analysis id",
		AnalysisSearchFailed:   "Could not search history",
		AnalysisHistoryFailed:  "Could not load analysis history",
		AnalysisFromHistory:    "Loaded analysis from history",
		AIServerHealthy:        "AI server is healthy",
		AIServerUnavailable:    "AI server is unavailable",
		AIServerCheckFailed:    "Could not check AI server status",
	},
}

// Catalog resolves keys to localized text
type Catalog struct {
	locale Locale
}

// NewCatalog creates a catalog for locale, falling back to Vietnamese
func NewCatalog(locale Locale) *Catalog {
	if _, ok := messages[locale]; !ok {
		locale = LocaleVI
	}
	return &Catalog{locale: locale}
}

// Locale returns the active locale
func (c *Catalog) Locale() Locale {
	return c.locale
}

// Text renders key; unknown keys render as the key itself
func (c *Catalog) Text(key Key, args ...interface{}) string {
	tmpl, ok := messages[c.locale][key]
	if !ok {
		tmpl, ok = messages[LocaleVI][key]
	}
	if !ok {
		return string(key)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
