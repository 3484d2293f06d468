package model

const (
	MaxTitleLength          = 80
	MaxDescriptionLength    = 200
	MaxURLLength            = 200
	MaxMilestoneTitleLength = 100

	MaxMilestonesPerCampaign uint8 = 10

	MinCampaignDurationDays uint64 = 1
	MaxCampaignDurationDays uint64 = 90

	SecondsPerDay int64 = 86400

	// DevnetUSDCMint is Circle's USDC mint on Solana devnet.
	DevnetUSDCMint = "Gh9ZwEmdLJ8DscKNTkTqPbNwLNNBjuSzaG9Vp2KGtKJr"
	USDCDecimals   = 6
)
