// Package noise 实现传输链中的 Noise 安全层
//
// 使用 Noise_XX_25519_ChaChaPoly_SHA256：
//   - XX: 三轮握手，双方交换静态公钥
//   - 25519: Curve25519 用于 DH 密钥交换
//   - ChaChaPoly: ChaCha20-Poly1305 用于对称加密
//   - SHA256: 用于 HKDF 密钥派生
//
// # 握手流程
//
//	-> e                  (发起者发送临时公钥)
//	<- e, ee, s, es       (响应者发送临时公钥、静态公钥)
//	-> s, se              (发起者发送静态公钥)
//
// 握手由下层的入站回调驱动，不占用额外 goroutine。
// 握手期间状态为 Connecting，完成后为 Connected；握手或解密失败为 Failed。
//
// # 帧格式
//
// 每个握手消息和密文都带 2 字节大端长度前缀。单帧明文最多
// MaxPlaintext 字节，更长的消息拆成多帧发送。
package noise
