package codes

import (
	"golang.org/x/text/language"
)

// supported lists the catalog languages; the first entry is the fallback.
var supported = []language.Tag{
	language.English,
	language.SimplifiedChinese,
}

var matcher = language.NewMatcher(supported)

// chinese holds the Simplified Chinese catalog text keyed by code.
var chinese = map[string]string{
	"00000": "成功",
	"10000": "系统异常",
	"10001": "服务不存在",
	"10002": "服务调用超时",
	"10003": "服务调用异常",
	"20000": "用户不存在",
	"20001": "用户未登录",
	"20002": "用户密码不正确",
	"20003": "用户无访问权限",
	"20004": "您尚未设置登录密码，可以切换快捷登录方式直接登录或通过忘记密码功能完成登录密码的设置。",
	"21010": "密码为空",
	"21020": "密码格式错误",
	"21030": "token已过期，请重新登录",
	"21040": "异地登录",
	"21050": "账户异常",
	"21060": "账户被锁定",
	"30001": "参数异常",
	"30002": "数据重复提交",
	"30003": "验证码错误",
	"30004": "验证码已过期，请重新获取验证码",
	"30006": "密码错误次数警告",
	"50001": "数据入库异常",
	"50002": "金额发生变化",
}

// Match resolves an Accept-Language header value against the catalog
// languages, falling back to def (then English) when nothing matches.
func Match(acceptLanguage string, def language.Tag) language.Tag {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		prefs = []language.Tag{def}
	}
	_, idx, conf := matcher.Match(prefs...)
	if conf == language.No {
		if _, idx, conf = matcher.Match(def); conf == language.No {
			return supported[0]
		}
	}
	return supported[idx]
}

// Localize returns the message to show for code in the language negotiated
// from acceptLanguage. Only catalog default messages are translated; any
// custom message passes through unchanged.
func Localize(code, message, acceptLanguage string, def language.Tag) string {
	ec, ok := Lookup(code)
	if !ok || ec.Message != message {
		return message
	}
	return MessageIn(ec, Match(acceptLanguage, def))
}

// MessageIn returns ec's message in lang, or its default message when the
// language has no translation.
func MessageIn(ec ErrorCode, lang language.Tag) string {
	if lang == language.SimplifiedChinese {
		if s, ok := chinese[ec.Code]; ok {
			return s
		}
	}
	return ec.Message
}
