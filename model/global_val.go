package model

// 全局常量

const (
	MsPerSecond = 1000.0

	// 计算参数默认值
	DefaultChargeExponent  = 0.8
	DefaultNumElements     = 10
	DefaultToleranceFactor = 0.5 // 同时起爆判定容差：爆轰波穿过半个单元的时间

	// 能量守恒校验的相对误差
	ConservationTolerance = 1e-6
)
