// Package errcode holds the stable error-code table shared by every API
// response.
//
// Codes are six digits: module(2) + type(2) + sequence(2).
//
//	10 system, 20 user, 30 payment, 40 analysis,
//	50 knowledge, 60 feedback, 70 file.
//
// Codes are never renumbered; new entries are appended at the end of their
// module block.
package errcode

// Entry is one (code, message) pair of the table.
type Entry struct {
	Code    int
	Message string
}

// Module returns the two-digit module prefix of the entry's code.
func (e Entry) Module() int {
	return e.Code / 10000
}

// System 10xxxx.
var (
	Success            = Entry{100000, "操作成功"}
	SystemError        = Entry{100001, "系统异常，请稍后重试"}
	ParamError         = Entry{100002, "参数错误"}
	ParamMissing       = Entry{100003, "缺少必要参数"}
	ParamInvalid       = Entry{100004, "参数格式不正确"}
	RequestMethodError = Entry{100005, "请求方法不支持"}
	RequestTimeout     = Entry{100006, "请求超时"}
	RateLimitExceeded  = Entry{100007, "请求过于频繁，请稍后再试"}
	ServiceUnavailable = Entry{100008, "服务暂时不可用"}
	DatabaseError      = Entry{100009, "数据库操作失败"}
)

// User 20xxxx.
var (
	UserNotFound       = Entry{200001, "用户不存在"}
	UserAlreadyExists  = Entry{200002, "用户已存在"}
	UsernameExists     = Entry{200003, "用户名已存在"}
	EmailExists        = Entry{200004, "邮箱已被注册"}
	PhoneExists        = Entry{200005, "手机号已被注册"}
	PasswordError      = Entry{200006, "密码错误"}
	PasswordTooWeak    = Entry{200007, "密码强度不足"}
	TokenInvalid       = Entry{200008, "登录凭证无效"}
	TokenExpired       = Entry{200009, "登录凭证已过期"}
	Unauthorized       = Entry{200010, "未授权，请先登录"}
	PermissionDenied   = Entry{200011, "权限不足"}
	UserDisabled       = Entry{200012, "用户已被禁用"}
	UserInfoIncomplete = Entry{200013, "用户信息不完整"}
)

// Payment 30xxxx.
var (
	OrderNotFound             = Entry{300001, "订单不存在"}
	OrderAlreadyPaid          = Entry{300002, "订单已支付"}
	OrderExpired              = Entry{300003, "订单已过期"}
	OrderCancelled            = Entry{300004, "订单已取消"}
	PaymentFailed             = Entry{300005, "支付失败"}
	PaymentAmountError        = Entry{300006, "支付金额错误"}
	PaymentVerifyFailed       = Entry{300007, "支付验证失败"}
	RefundFailed              = Entry{300008, "退款失败"}
	MembershipNotFound        = Entry{300009, "会员信息不存在"}
	MembershipExpired         = Entry{300010, "会员已过期"}
	MembershipPackageNotFound = Entry{300011, "会员套餐不存在"}
	MembershipPackageDisabled = Entry{300012, "会员套餐已下架"}
	InsufficientBalance       = Entry{300013, "余额不足"}
)

// Analysis 40xxxx.
var (
	BaziInfoNotFound        = Entry{400001, "八字信息不存在"}
	BaziInfoInvalid         = Entry{400002, "八字信息格式错误"}
	AnalysisFailed          = Entry{400003, "分析失败，请稍后重试"}
	AnalysisHistoryNotFound = Entry{400004, "分析历史不存在"}
	ReportNotFound          = Entry{400005, "报告不存在"}
	ReportGenerationFailed  = Entry{400006, "报告生成失败"}
	ReportExportFailed      = Entry{400007, "报告导出失败"}
	MCPServiceError         = Entry{400008, "MCP服务调用失败"}
	AIModelError            = Entry{400009, "AI模型调用失败"}
	AnalysisQuotaExceeded   = Entry{400010, "分析次数已用完，请升级会员"}
	InvalidAnalysisType     = Entry{400011, "不支持的分析类型"}
)

// Knowledge 50xxxx.
var (
	CategoryNotFound        = Entry{500001, "分类不存在"}
	CategoryAlreadyExists   = Entry{500002, "分类已存在"}
	CategoryHasChildren     = Entry{500003, "该分类下有子分类，无法删除"}
	CategoryHasArticles     = Entry{500004, "该分类下有文章，无法删除"}
	ArticleNotFound         = Entry{500005, "文章不存在"}
	ArticleAlreadyExists    = Entry{500006, "文章已存在"}
	ArticleDisabled         = Entry{500007, "文章已下架"}
	CollectionAlreadyExists = Entry{500008, "已收藏过该内容"}
	CollectionNotFound      = Entry{500009, "收藏记录不存在"}
)

// Feedback 60xxxx.
var (
	FeedbackNotFound         = Entry{600001, "反馈不存在"}
	FeedbackAlreadyProcessed = Entry{600002, "反馈已处理"}
	FeedbackContentEmpty     = Entry{600003, "反馈内容不能为空"}
	RatingOutOfRange         = Entry{600004, "评分必须在1-5之间"}
)

// File 70xxxx.
var (
	FileNotFound         = Entry{700001, "文件不存在"}
	FileUploadFailed     = Entry{700002, "文件上传失败"}
	FileSizeExceeded     = Entry{700003, "文件大小超过限制"}
	FileTypeNotSupported = Entry{700004, "不支持的文件类型"}
	FileDownloadFailed   = Entry{700005, "文件下载失败"}
)

// all lists every entry in declaration order.
var all = []Entry{
	Success, SystemError, ParamError, ParamMissing, ParamInvalid, RequestMethodError,
	RequestTimeout, RateLimitExceeded, ServiceUnavailable, DatabaseError,

	UserNotFound, UserAlreadyExists, UsernameExists, EmailExists, PhoneExists, PasswordError,
	PasswordTooWeak, TokenInvalid, TokenExpired, Unauthorized, PermissionDenied, UserDisabled,
	UserInfoIncomplete,

	OrderNotFound, OrderAlreadyPaid, OrderExpired, OrderCancelled, PaymentFailed,
	PaymentAmountError, PaymentVerifyFailed, RefundFailed, MembershipNotFound, MembershipExpired,
	MembershipPackageNotFound, MembershipPackageDisabled, InsufficientBalance,

	BaziInfoNotFound, BaziInfoInvalid, AnalysisFailed, AnalysisHistoryNotFound, ReportNotFound,
	ReportGenerationFailed, ReportExportFailed, MCPServiceError, AIModelError,
	AnalysisQuotaExceeded, InvalidAnalysisType,

	CategoryNotFound, CategoryAlreadyExists, CategoryHasChildren, CategoryHasArticles,
	ArticleNotFound, ArticleAlreadyExists, ArticleDisabled, CollectionAlreadyExists,
	CollectionNotFound,

	FeedbackNotFound, FeedbackAlreadyProcessed, FeedbackContentEmpty, RatingOutOfRange,

	FileNotFound, FileUploadFailed, FileSizeExceeded, FileTypeNotSupported, FileDownloadFailed,
}

var byCode = func() map[int]Entry {
	m := make(map[int]Entry, len(all))
	for _, e := range all {
		m[e.Code] = e
	}
	return m
}()

// Lookup returns the entry registered for code.
func Lookup(code int) (Entry, bool) {
	e, ok := byCode[code]
	return e, ok
}

// All returns a copy of the table in declaration order.
func All() []Entry {
	out := make([]Entry, len(all))
	copy(out, all)
	return out
}

// IsAuth reports whether code belongs to the credential/permission range
// (200008-200011).
func IsAuth(code int) bool {
	return code >= TokenInvalid.Code && code <= PermissionDenied.Code
}
