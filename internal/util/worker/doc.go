// Package worker 提供后台工作池与串行处理器
//
// Pool 用于执行不能在网络回调 goroutine 上同步完成的工作，
// 例如传输链拆除（Stop 会等待读循环退出，不能在读循环自身上调用）。
//
// Processor 在 Pool 之上按 FIFO 串行执行任务，多路复用层用它
// 保证同一关联上的重组与发送排空不会并发执行。
package worker
