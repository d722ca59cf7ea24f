package mask

import "fmt"

// Edit 创建一个编辑会话，加载照片后执行 fn。
// 无论 fn 正常返回、出错还是 panic（包括笔画进行到一半被放弃），都会 Close 释放资源。
func Edit(photo []byte, opts Options, fn func(e *Engine) error) error {
	e := New(opts)
	defer e.Close()

	if err := e.Load(photo); err != nil {
		return err
	}
	if err := fn(e); err != nil {
		return fmt.Errorf("edit session: %w", err)
	}
	return nil
}
