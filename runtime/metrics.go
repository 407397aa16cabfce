// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import "github.com/vechain/stakepool/metrics"

var (
	metricTransitions     = metrics.LazyLoadCounterVec("transitions_count", []string{"kind", "outcome"})
	metricExecutionTime   = metrics.LazyLoadHistogramVec("transition_duration_us", []string{"kind"}, metrics.BucketExecution)
	metricPoolTotalStaked = metrics.LazyLoadGauge("pool_total_staked")
	metricCacheHitRate    = metrics.LazyLoadGauge("state_cache_hit_rate_permille")
)
