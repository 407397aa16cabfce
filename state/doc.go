// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the ledger records owned by programs.
// It follows the flow as bellow:
//
//	          o
//	          |
//	 [ revertable state ]
//	          |
//	   [ stacked map ] -> [ journal ] -> [ playback(staging) ] -> [ kv bulk ]
//	          |
//	   [ record cache ]
//	          |
//	   [ kv store ]
//
// Every record is addressed by the owning program and the account address.
// A transition is applied by checkpointing, mutating and, on failure, reverting
// to the checkpoint. Nothing reaches the store until the stage is committed.
package state
