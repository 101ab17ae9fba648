package state

// Key prefixes partition the shared trie into per-module, per-record-kind
// namespaces before hashing, mirroring the teacher's core/state/manager.go
// prefix scheme.
var (
	tokenMetaPrefix      = []byte("token/meta")
	tokenBalancePrefix   = []byte("token/balance")
	tokenAllowancePrefix = []byte("token/allowance")

	stakingMetaPrefix       = []byte("staking/meta")
	stakingWithdrawalPrefix = []byte("staking/withdrawal")

	lendingMetaPrefix     = []byte("lending/meta")
	lendingPositionPrefix = []byte("lending/position")

	ammMetaPrefix       = []byte("amm/meta")
	ammLPBalancePrefix  = []byte("amm/lpbalance")

	governanceMetaPrefix     = []byte("governance/meta")
	governanceProposalPrefix = []byte("governance/proposal")
	governanceVotePrefix     = []byte("governance/vote")
	governanceParamPrefix    = []byte("governance/param")
)
