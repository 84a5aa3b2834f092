package ethereum

const fortuneABI = `[
  {
    "name": "deposit",
    "type": "function",
    "stateMutability": "payable",
    "inputs": [
      {"name": "roundId", "type": "uint256"},
      {
        "name": "deposits",
        "type": "tuple[]",
        "components": [
          {"name": "tokenType", "type": "uint8"},
          {"name": "tokenAddress", "type": "address"},
          {"name": "tokenIdsOrAmounts", "type": "uint256[]"},
          {
            "name": "reservoirOracleFloorPrice",
            "type": "tuple",
            "components": [
              {"name": "id", "type": "bytes32"},
              {"name": "payload", "type": "bytes"},
              {"name": "timestamp", "type": "uint256"},
              {"name": "signature", "type": "bytes"}
            ]
          }
        ]
      }
    ],
    "outputs": []
  },
  {
    "name": "withdrawDeposits",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "roundId", "type": "uint256"},
      {"name": "depositIndices", "type": "uint256[]"}
    ],
    "outputs": []
  },
  {
    "name": "claimPrizes",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      {
        "name": "claimPrizesCalldata",
        "type": "tuple[]",
        "components": [
          {"name": "roundId", "type": "uint256"},
          {"name": "prizeIndices", "type": "uint256[]"}
        ]
      }
    ],
    "outputs": []
  },
  {
    "name": "roundsCount",
    "type": "function",
    "stateMutability": "view",
    "inputs": [],
    "outputs": [{"name": "", "type": "uint256"}]
  }
]`

const transferManagerABI = `[
  {
    "name": "hasUserApprovedOperator",
    "type": "function",
    "stateMutability": "view",
    "inputs": [
      {"name": "user", "type": "address"},
      {"name": "operator", "type": "address"}
    ],
    "outputs": [{"name": "", "type": "bool"}]
  },
  {
    "name": "grantApprovals",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [{"name": "operators", "type": "address[]"}],
    "outputs": []
  }
]`

const erc20ABI = `[
  {
    "name": "allowance",
    "type": "function",
    "stateMutability": "view",
    "inputs": [
      {"name": "owner", "type": "address"},
      {"name": "spender", "type": "address"}
    ],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "name": "approve",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "spender", "type": "address"},
      {"name": "amount", "type": "uint256"}
    ],
    "outputs": [{"name": "", "type": "bool"}]
  }
]`

const erc721ABI = `[
  {
    "name": "isApprovedForAll",
    "type": "function",
    "stateMutability": "view",
    "inputs": [
      {"name": "owner", "type": "address"},
      {"name": "operator", "type": "address"}
    ],
    "outputs": [{"name": "", "type": "bool"}]
  },
  {
    "name": "setApprovalForAll",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "operator", "type": "address"},
      {"name": "approved", "type": "bool"}
    ],
    "outputs": []
  }
]`
