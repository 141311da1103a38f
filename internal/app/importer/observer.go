package importer

import (
	"time"

	"github.com/John-Robertt/jellynote/internal/domain"
)

// Observer 用于把“导入进度/条目结果”从核心执行流程中解耦出来。
//
// 约束：
// - importer 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 导入是单循环顺序执行，事件天然串行；实现无需考虑并发。
type Observer interface {
	// OnStart 在展开选集、确定总数之后调用（应尽量早，保证用户 1 秒内看到输出）。
	OnStart(vaultPath string, total int)
	// OnItemDone 在某部电影处理完成时调用（用于每条结果的一行输出与运行计数）。
	OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration)
	// OnFinish 在整批结束时调用。
	OnFinish(summary domain.ReportSummary, elapsed time.Duration)
}
