package thread

import "matbook-backend/internal/model"

// DeltaReplies 返回 fetched 中 id 不在 known 里的回复，保持拉取顺序
func DeltaReplies(known, fetched []*model.Reply) []*model.Reply {
	seen := make(map[int]struct{}, len(known))
	for _, r := range known {
		seen[r.ID] = struct{}{}
	}
	delta := make([]*model.Reply, 0, len(fetched))
	for _, r := range fetched {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		delta = append(delta, r)
	}
	return delta
}

// MergeReplies 把已知回复与拉取回复合并为规范序列：
// 已知回复按原顺序在前，新发现的回复按拉取顺序在后；
// 按 id 去重，保留先出现的副本（即已知副本胜过拉取副本）。
// 稳定 id 下重复本不该出现，但规则必须无条件成立，
// 以容忍拉取时间窗重叠。
func MergeReplies(known, fetched []*model.Reply) []*model.Reply {
	seen := make(map[int]struct{}, len(known)+len(fetched))
	canonical := make([]*model.Reply, 0, len(known)+len(fetched))
	for _, r := range known {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		canonical = append(canonical, r)
	}
	for _, r := range fetched {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		canonical = append(canonical, r)
	}
	return canonical
}
