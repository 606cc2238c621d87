// Package admission 实现请求准入过滤：按路由规则分级信任，未匹配一律拒绝
package admission

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/marketgateway/pkg/logger"
	"github.com/wyfcoding/marketgateway/pkg/metrics"
	"github.com/wyfcoding/marketgateway/pkg/response"
)

// TrustClass 请求信任级别
type TrustClass int

const (
	// TrustOpen 无需凭证
	TrustOpen TrustClass = iota
	// TrustUser 需要有效的用户令牌
	TrustUser
	// TrustInternal 需要服务间共享密钥
	TrustInternal
)

// SubjectKey 准入通过后写入 gin context 的用户主体键
const SubjectKey = "auth_subject"

// HeaderInternalSecret 服务间共享密钥请求头
const HeaderInternalSecret = "X-Internal-Secret"

// Rule 准入规则。Method 为空匹配任意方法，Prefix 按路径前缀匹配
type Rule struct {
	Method string
	Prefix string
	Trust  TrustClass
}

// TokenValidator 用户令牌校验端口
type TokenValidator interface {
	Validate(token string) (string, bool)
}

// Filter 准入过滤器。规则按声明顺序求值，第一条命中的规则生效，
// 没有规则命中的请求一律拒绝
type Filter struct {
	rules      []Rule
	validator  TokenValidator
	secretHash [sha256.Size]byte
	metrics    *metrics.Metrics
}

// NewFilter 创建准入过滤器。密钥只保存散列，比较是常数时间的
func NewFilter(rules []Rule, validator TokenValidator, internalSecret string, m *metrics.Metrics) *Filter {
	return &Filter{
		rules:      rules,
		validator:  validator,
		secretHash: sha256.Sum256([]byte(internalSecret)),
		metrics:    m,
	}
}

// Middleware 返回在路由处理前求值的 gin 中间件
func (f *Filter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rule, ok := f.match(c.Request.Method, c.Request.URL.Path)
		if !ok {
			logger.Warn(c.Request.Context(), "Request denied: no admission rule",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
			f.reject(c)
			return
		}

		switch rule.Trust {
		case TrustOpen:
			c.Next()

		case TrustUser:
			token := bearerToken(c.GetHeader("Authorization"))
			subject, valid := f.validator.Validate(token)
			if !valid {
				logger.Warn(c.Request.Context(), "Request denied: invalid token",
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
				)
				f.reject(c)
				return
			}
			c.Set(SubjectKey, subject)
			c.Next()

		case TrustInternal:
			if !f.secretMatches(c.GetHeader(HeaderInternalSecret)) {
				logger.Warn(c.Request.Context(), "Request denied: internal secret mismatch",
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"client_ip", c.ClientIP(),
				)
				if f.metrics != nil {
					f.metrics.InternalRejected.Inc()
				}
				f.reject(c)
				return
			}
			c.Next()

		default:
			f.reject(c)
		}
	}
}

// match 返回第一条命中的规则
func (f *Filter) match(method, path string) (Rule, bool) {
	for _, rule := range f.rules {
		if rule.Method != "" && rule.Method != method {
			continue
		}
		if strings.HasPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return Rule{}, false
}

// secretMatches 常数时间比较，密钥本身不出现在日志或错误里
func (f *Filter) secretMatches(presented string) bool {
	if presented == "" {
		return false
	}
	presentedHash := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(f.secretHash[:], presentedHash[:]) == 1
}

func (f *Filter) reject(c *gin.Context) {
	response.Error(c, http.StatusUnauthorized, "Unauthorized")
	c.Abort()
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
