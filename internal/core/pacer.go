package core

import (
	"github.com/officescreen/officescreen/internal/models"
	"github.com/officescreen/officescreen/internal/utils"
)

// 自适应调速阈值
// 成功率低于0.5拉长停留时间,高于0.9缩短,边界值不触发调整
const (
	paceLowSuccessRate  = 0.5
	paceHighSuccessRate = 0.9
	paceSlowdownFactor  = 1.5
	paceSpeedupFactor   = 0.8
)

// Pacer 自适应调速器
// 根据累计成功率原地改写配置的停留时间,除两个累计计数外不参考任何历史
type Pacer struct {
	cfg   *models.AppConfig
	state *models.SessionState
}

// NewPacer 创建调速器
func NewPacer(cfg *models.AppConfig, state *models.SessionState) *Pacer {
	return &Pacer{cfg: cfg, state: state}
}

// Adjust 每次URL访问后调用一次,返回当前生效的停留时间(秒)
func (p *Pacer) Adjust() float64 {
	if !p.cfg.AdaptiveInterval || p.state.TotalVisits == 0 {
		return p.cfg.Interval
	}

	successRate := p.state.SuccessRate()
	current := p.cfg.Interval
	newInterval := current

	switch {
	case successRate < paceLowSuccessRate:
		newInterval = current * paceSlowdownFactor
		if newInterval > p.cfg.MaxInterval {
			newInterval = p.cfg.MaxInterval
		}
	case successRate > paceHighSuccessRate:
		newInterval = current * paceSpeedupFactor
		if newInterval < p.cfg.MinInterval {
			newInterval = p.cfg.MinInterval
		}
	}

	if newInterval != current {
		utils.Infof("调整停留时间: %.1f秒 -> %.1f秒 (成功率: %.2f)", current, newInterval, successRate)
		p.cfg.Interval = newInterval
	}

	return p.cfg.Interval
}
