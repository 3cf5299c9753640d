package noise

import (
	"encoding/hex"
	"fmt"

	"github.com/flynn/noise"

	"github.com/dep2p/go-rtcmux/config"
	"github.com/dep2p/go-rtcmux/pkg/types"
)

// Config 安全层配置
type Config struct {
	// Initiator 是否为握手发起方
	Initiator bool

	// StaticKeypair 本端静态密钥，为空时自动生成
	StaticKeypair noise.DHKey

	// Prologue 双方必须一致
	Prologue []byte

	// RemoteStatic 期望的对端静态公钥，为空不校验
	RemoteStatic []byte
}

// ConfigFromUnified 从统一配置创建，客户端角色作为发起方
func ConfigFromUnified(cfg *config.Config, role types.Role) (Config, error) {
	sc := config.DefaultSecurityConfig()
	if cfg != nil {
		sc = cfg.Security
	}

	c := Config{
		Initiator: role == types.RoleClient,
		Prologue:  []byte(sc.Prologue),
	}
	if sc.RemoteStaticKey != "" {
		key, err := hex.DecodeString(sc.RemoteStaticKey)
		if err != nil {
			return Config{}, fmt.Errorf("decode remote static key: %w", err)
		}
		c.RemoteStatic = key
	}
	return c, nil
}
