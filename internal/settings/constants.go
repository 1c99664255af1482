package settings

import "github.com/cantian-ai/bazigate/internal/ratelimit"

// Route identifiers used by the rate limit table.
const (
	// RouteSMSSend guards verification code delivery.
	RouteSMSSend = "auth.sms.send"
	// RoutePhoneLogin guards phone number login.
	RoutePhoneLogin = "auth.phone.login"
	// RouteUserLogin guards username and password login.
	RouteUserLogin = "user.login"
	// RouteUserRegister guards account registration.
	RouteUserRegister = "user.register"
	// RouteTokenRefresh guards access token refresh.
	RouteTokenRefresh     = "auth.token.refresh"
	RouteDeepseekChat     = "deepseek.chat"
	RouteDeepseekStream   = "deepseek.stream"
	RouteDeepseekAnalysis = "deepseek.analysis"
	RouteI18nTranslate    = "i18n.translate"
	RouteI18nReport       = "i18n.report"
	RouteTrendAnalysis    = "trend.analysis"
	RouteBaziTools        = "bazi.tools"
	RouteBaziFormatted    = "bazi.formatted"
)

// Default server settings.
const (
	DefaultListenAddr  = ":8080"
	DefaultConfigPath  = "config.yaml"
	DefaultDatabaseDSN = "file:bazigate.db?_pragma=busy_timeout(5000)"
)

// DefaultRules is the route table used when the config file declares none.
func DefaultRules() []ratelimit.Rule {
	return []ratelimit.Rule{
		{Route: RouteSMSSend, WindowSeconds: 60, MaxCount: 1, Dimension: ratelimit.DimensionIP},
		{Route: RoutePhoneLogin, WindowSeconds: 60, MaxCount: 5, Dimension: ratelimit.DimensionIP},
		{Route: RouteUserLogin, WindowSeconds: 60, MaxCount: 5, Dimension: ratelimit.DimensionIP},
		{Route: RouteUserRegister, WindowSeconds: 60, MaxCount: 3, Dimension: ratelimit.DimensionIP},
		{Route: RouteTokenRefresh, WindowSeconds: 60, MaxCount: 10, Dimension: ratelimit.DimensionIP},
		{Route: RouteDeepseekChat, WindowSeconds: 60, MaxCount: 5, Dimension: ratelimit.DimensionUser},
		{Route: RouteDeepseekStream, WindowSeconds: 60, MaxCount: 5, Dimension: ratelimit.DimensionUser},
		{Route: RouteDeepseekAnalysis, WindowSeconds: 60, MaxCount: 5, Dimension: ratelimit.DimensionUser},
		{Route: RouteI18nTranslate, WindowSeconds: 60, MaxCount: 10, Dimension: ratelimit.DimensionUser},
		{Route: RouteI18nReport, WindowSeconds: 60, MaxCount: 5, Dimension: ratelimit.DimensionUser},
		{Route: RouteTrendAnalysis, WindowSeconds: 60, MaxCount: 5, Dimension: ratelimit.DimensionUser},
		{Route: RouteBaziTools, WindowSeconds: 60, MaxCount: 20, Dimension: ratelimit.DimensionUser},
		{Route: RouteBaziFormatted, WindowSeconds: 60, MaxCount: 10, Dimension: ratelimit.DimensionUser},
	}
}
