package redis

// Redis Key 定义与构造器
// 统一管理业务使用的 Redis Key，避免散落的魔法字符串。

const (
	// PrefixRegIdemResult：报名幂等"结果缓存"前缀。缓存某个 idempotency key
	// 首次成功的报名结果（RegisterOutput JSON），重复请求直接返回。
	PrefixRegIdemResult = "raffle:reg:idem:result:"
	// PrefixRegIdemLock：报名幂等"进行中锁"前缀。SETNX + TTL 吸收瞬时重复请求。
	PrefixRegIdemLock = "raffle:reg:idem:lock:"

	// PrefixRaffleInfo：活动信息缓存（报名窗口等），用于前端倒计时
	PrefixRaffleInfo = "raffle:info:"
	// PrefixDrawResult：开奖结果缓存
	PrefixDrawResult = "raffle:result:"

	// PrefixTokenBlacklist：已注销 JWT 黑名单
	PrefixTokenBlacklist = "token:blacklist:"
)

// RegIdemResultKey 报名幂等结果缓存 Key：raffle:reg:idem:result:{idempotency_key}
func RegIdemResultKey(k string) string { return PrefixRegIdemResult + k }

// RegIdemLockKey 报名幂等进行中锁 Key：raffle:reg:idem:lock:{idempotency_key}
func RegIdemLockKey(k string) string { return PrefixRegIdemLock + k }

// RaffleInfoKey 活动信息缓存 Key：raffle:info:{raffle_id}
func RaffleInfoKey(raffleID int64) string { return PrefixRaffleInfo + itoa(raffleID) }

// DrawResultKey 开奖结果缓存 Key：raffle:result:{raffle_id}
func DrawResultKey(raffleID int64) string { return PrefixDrawResult + itoa(raffleID) }

// TokenBlacklistKey JWT 黑名单 Key
func TokenBlacklistKey(token string) string { return PrefixTokenBlacklist + token }

func itoa(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var b [20]byte
	pos := len(b)
	for i > 0 {
		pos--
		b[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		b[pos] = '-'
	}
	return string(b[pos:])
}
