// Package chain 把各层传输组装为一条链
//
// 链为每种层（原始流、安全、分帧、多路复用）保留一个槽。最内层由
// Open 挂载并启动；每层进入 Connected 后，链在它之上构造并启动下一个
// 启用的层。多路复用层连接后链进入 Open。
//
// 任意一层 Failed 或 Disconnected 都会关闭整条链：链状态只进入一次
// Closed，所有回调被解除，所有槽被原子取出，取出的层交给线程池
// 自顶向下停止。
//
// 层的回调只持有链的弱引用，链不可达后回调不再生效。
package chain
